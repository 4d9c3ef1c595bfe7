package db

import (
	"context"
	"regexp"
	"strings"

	"tastebase/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchRecipes returns every recipe matching the diet/keyword
// predicate. Pagination happens in the query engine, not here, so the
// caller can report the full match count.
func (db *DB) SearchRecipes(ctx context.Context, diet, keyword string) ([]models.Recipe, error) {
	cursor, err := db.Recipes.Find(ctx, RecipeFilter(diet, keyword))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recipes []models.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// RecipeFilter builds the search predicate. An empty diet or keyword
// contributes no clause. Diets are stored lower-cased by the ingest
// pipeline, so lower-casing the filter value gives the case-insensitive
// equality match.
func RecipeFilter(diet, keyword string) bson.M {
	filter := bson.M{}
	if diet != "" {
		filter["Diet"] = strings.ToLower(diet)
	}
	if keyword != "" {
		filter["Title"] = bson.M{"$regex": regexp.QuoteMeta(keyword), "$options": "i"}
	}
	return filter
}

func (db *DB) UpsertRecipe(ctx context.Context, recipe models.Recipe) error {
	_, err := db.Recipes.ReplaceOne(ctx,
		bson.M{"_id": recipe.ID}, recipe, options.Replace().SetUpsert(true))
	return err
}
