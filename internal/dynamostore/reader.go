// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package dynamostore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// GetMenus implements store.Reader with BatchGetItem.
func (s *Store) GetMenus(ctx context.Context, ids []string) (out []models.MenuRecord, err error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer observe("batch_get", s.tables.Menus, time.Now(), &err)
	items, err := s.batchGet(ctx, s.tables.Menus, "item_id", ids)
	if err != nil {
		return nil, err
	}
	var menus []menuItem
	if err = attributevalue.UnmarshalListOfMaps(items, &menus); err != nil {
		return nil, fmt.Errorf("unmarshal menus: %w", err)
	}
	for _, m := range menus {
		out = append(out, m.record())
	}
	slices.SortFunc(out, func(a, b models.MenuRecord) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out, nil
}

// SearchMenus implements store.Reader. DynamoDB has no case-insensitive
// contains, so the table is scanned and matched here.
func (s *Store) SearchMenus(ctx context.Context, query string, limit int) ([]models.MenuRecord, error) {
	all, err := store.AllMenus(ctx, s, 0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	slices.SortFunc(all, func(a, b models.MenuRecord) int { return strings.Compare(a.ItemID, b.ItemID) })
	var out []models.MenuRecord
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.ProductDescription), q) {
			out = append(out, m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ListIngredients implements store.Reader, most used first.
func (s *Store) ListIngredients(ctx context.Context) (out []models.IngredientRecord, err error) {
	defer observe("scan", s.tables.Ingredients, time.Now(), &err)
	var items []ingredientItem
	err = s.scanAll(ctx, &dynamodb.ScanInput{TableName: aws.String(s.tables.Ingredients)}, func(page []map[string]types.AttributeValue) error {
		var batch []ingredientItem
		if err := attributevalue.UnmarshalListOfMaps(page, &batch); err != nil {
			return fmt.Errorf("unmarshal ingredients: %w", err)
		}
		items = append(items, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out = append(out, models.IngredientRecord{Name: it.Name, Count: it.Count})
	}
	slices.SortFunc(out, func(a, b models.IngredientRecord) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// ListUsers implements store.Reader. after is the last user id of the
// previous page.
func (s *Store) ListUsers(ctx context.Context, after string, limit int) (page store.UserPage, err error) {
	defer observe("scan", s.tables.Users, time.Now(), &err)
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Users)}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	if after != "" {
		in.ExclusiveStartKey = map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: after}}
	}
	out, err := s.client.Scan(ctx, in)
	if err != nil {
		return page, fmt.Errorf("scan users: %w", err)
	}
	var items []userItem
	if err = attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return page, fmt.Errorf("unmarshal users: %w", err)
	}
	for _, u := range items {
		page.Users = append(page.Users, u.record())
	}
	page.Next = stringKey(out.LastEvaluatedKey, "user_id")
	return page, nil
}

// CountUsers implements store.Reader with a COUNT scan.
func (s *Store) CountUsers(ctx context.Context) (n int64, err error) {
	defer observe("count", s.tables.Users, time.Now(), &err)
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Users), Select: types.SelectCount}
	for {
		out, err := s.client.Scan(ctx, in)
		if err != nil {
			return 0, fmt.Errorf("count users: %w", err)
		}
		n += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return n, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// UsersWhoLiked implements store.Reader. Interactions are queried per item
// and the distinct users are fetched in batches.
func (s *Store) UsersWhoLiked(ctx context.Context, itemIDs []string) (out []models.UserRecord, err error) {
	defer observe("liked", s.tables.Interactions, time.Now(), &err)
	seen := make(map[string]bool)
	var userIDs []string
	for _, itemID := range itemIDs {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(s.tables.Interactions),
			KeyConditionExpression: aws.String("item_id = :item"),
			FilterExpression:       aws.String("liked = :one"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":item": &types.AttributeValueMemberS{Value: itemID},
				":one":  &types.AttributeValueMemberN{Value: "1"},
			},
		}
		recs, err := s.queryAll(ctx, in, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if !seen[r.UserID] {
				seen[r.UserID] = true
				userIDs = append(userIDs, r.UserID)
			}
		}
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	items, err := s.batchGet(ctx, s.tables.Users, "user_id", userIDs)
	if err != nil {
		return nil, err
	}
	var users []userItem
	if err = attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	for _, u := range users {
		out = append(out, u.record())
	}
	slices.SortFunc(out, func(a, b models.UserRecord) int { return strings.Compare(a.UserID, b.UserID) })
	return out, nil
}

// InteractionsByUser implements store.Reader through the user index, which
// is sorted by created_at.
func (s *Store) InteractionsByUser(ctx context.Context, userID string, limit int) (out []models.InteractionRecord, err error) {
	defer observe("query_by_user", s.tables.Interactions, time.Now(), &err)
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Interactions),
		IndexName:              aws.String(s.tables.InteractionsUser),
		KeyConditionExpression: aws.String("user_id = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	return s.queryAll(ctx, in, limit)
}

// InteractionsByItem implements store.Reader. The table sorts an item's
// rows by user, so they are reordered newest first here.
func (s *Store) InteractionsByItem(ctx context.Context, itemID string, limit int) (out []models.InteractionRecord, err error) {
	defer observe("query_by_item", s.tables.Interactions, time.Now(), &err)
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Interactions),
		KeyConditionExpression: aws.String("item_id = :item"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":item": &types.AttributeValueMemberS{Value: itemID},
		},
	}
	out, err = s.queryAll(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PopularItems implements store.Reader by scanning liked interactions.
func (s *Store) PopularItems(ctx context.Context, limit int, excludeUser string) (_ []store.ItemScore, err error) {
	defer observe("popular", s.tables.Interactions, time.Now(), &err)
	excluded := make(map[string]bool)
	if excludeUser != "" {
		mine, err := s.InteractionsByUser(ctx, excludeUser, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range mine {
			excluded[r.ItemID] = true
		}
	}

	likes := make(map[string]int64)
	in := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tables.Interactions),
		FilterExpression:          aws.String("liked = :one"),
		ProjectionExpression:      aws.String("item_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
	}
	err = s.scanAll(ctx, in, func(page []map[string]types.AttributeValue) error {
		for _, item := range page {
			id := stringKey(item, "item_id")
			if id != "" && !excluded[id] {
				likes[id]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store.RankScores(likes, limit), nil
}

func (s *Store) scanAll(ctx context.Context, in *dynamodb.ScanInput, fn func([]map[string]types.AttributeValue) error) error {
	for {
		out, err := s.client.Scan(ctx, in)
		if err != nil {
			return fmt.Errorf("scan %s: %w", aws.ToString(in.TableName), err)
		}
		if err := fn(out.Items); err != nil {
			return err
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryAll follows query pages until limit records are read, or all of
// them when limit is 0.
func (s *Store) queryAll(ctx context.Context, in *dynamodb.QueryInput, limit int) ([]models.InteractionRecord, error) {
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	var out []models.InteractionRecord
	for {
		res, err := s.client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", aws.ToString(in.TableName), err)
		}
		var items []interactionItem
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal interactions: %w", err)
		}
		for _, it := range items {
			out = append(out, it.record())
		}
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if len(res.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = res.LastEvaluatedKey
	}
}

// batchGet reads items by a single string key, retrying unprocessed keys a
// bounded number of times.
func (s *Store) batchGet(ctx context.Context, table, keyAttr string, ids []string) ([]map[string]types.AttributeValue, error) {
	var out []map[string]types.AttributeValue
	for chunk := range slices.Chunk(slices.Compact(slices.Sorted(slices.Values(ids))), batchGetLimit) {
		keys := make([]map[string]types.AttributeValue, len(chunk))
		for i, id := range chunk {
			keys[i] = map[string]types.AttributeValue{keyAttr: &types.AttributeValueMemberS{Value: id}}
		}
		req := map[string]types.KeysAndAttributes{table: {Keys: keys}}
		for round := 0; len(req) > 0; round++ {
			if round == maxBatchGetRounds {
				return nil, fmt.Errorf("batch get %s: %d keys still unprocessed after %d rounds",
					table, len(req[table].Keys), maxBatchGetRounds)
			}
			res, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: req})
			if err != nil {
				return nil, fmt.Errorf("batch get %s: %w", table, err)
			}
			out = append(out, res.Responses[table]...)
			req = res.UnprocessedKeys
		}
	}
	return out, nil
}

func sortNewestFirst(recs []models.InteractionRecord) {
	slices.SortFunc(recs, func(a, b models.InteractionRecord) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
}

