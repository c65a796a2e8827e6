// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tomtom215/mealreco/internal/models"
	"github.com/tomtom215/mealreco/internal/store"
)

// IncrementIngredient implements store.Writer with an atomic counter update.
func (s *Store) IncrementIngredient(ctx context.Context, name string) (err error) {
	defer observe("update", s.tables.Ingredients, time.Now(), &err)
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.tables.Ingredients),
		Key:                      map[string]types.AttributeValue{"name": &types.AttributeValueMemberS{Value: name}},
		UpdateExpression:         aws.String("SET #count = if_not_exists(#count, :zero) + :one"),
		ExpressionAttributeNames: map[string]string{"#count": "count"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":one":  &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("increment ingredient %q: %w", name, err)
	}
	return nil
}

// CreateMenuIfAbsent implements store.Writer with a conditional put. A
// failed condition is a conflict, not a query error.
func (s *Store) CreateMenuIfAbsent(ctx context.Context, rec models.MenuRecord) error {
	item, err := attributevalue.MarshalMap(toMenuItem(rec))
	if err != nil {
		return fmt.Errorf("marshal menu %s: %w", rec.ItemID, err)
	}
	start := time.Now()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Menus),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(item_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		observe("put", s.tables.Menus, start, nil)
		return store.ErrConflict
	}
	observe("put", s.tables.Menus, start, &err)
	if err != nil {
		return fmt.Errorf("put menu %s: %w", rec.ItemID, err)
	}
	return nil
}

// ScanMenus implements store.Writer. The cursor is the item id of the last
// menu on the previous page.
func (s *Store) ScanMenus(ctx context.Context, cursor string, limit int) (page store.MenuPage, err error) {
	defer observe("scan", s.tables.Menus, time.Now(), &err)
	in := &dynamodb.ScanInput{TableName: aws.String(s.tables.Menus)}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	if cursor != "" {
		in.ExclusiveStartKey = map[string]types.AttributeValue{"item_id": &types.AttributeValueMemberS{Value: cursor}}
	}
	out, err := s.client.Scan(ctx, in)
	if err != nil {
		return page, fmt.Errorf("scan menus: %w", err)
	}
	var items []menuItem
	if err = attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return page, fmt.Errorf("unmarshal menus: %w", err)
	}
	for _, it := range items {
		page.Menus = append(page.Menus, it.record())
	}
	page.Next = stringKey(out.LastEvaluatedKey, "item_id")
	return page, nil
}

// BatchPutUsers implements store.Writer. Items DynamoDB leaves unprocessed
// are returned for the batch coordinator to retry.
func (s *Store) BatchPutUsers(ctx context.Context, users []models.UserRecord) (_ []models.UserRecord, err error) {
	if len(users) == 0 {
		return nil, nil
	}
	defer observe("batch_write", s.tables.Users, time.Now(), &err)
	reqs := make([]types.WriteRequest, 0, len(users))
	for _, u := range users {
		item, err := attributevalue.MarshalMap(toUserItem(u))
		if err != nil {
			return nil, fmt.Errorf("marshal user %s: %w", u.UserID, err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	left, err := s.batchWrite(ctx, s.tables.Users, reqs)
	if err != nil {
		return nil, err
	}
	var unprocessed []models.UserRecord
	for _, item := range left {
		var u userItem
		if err = attributevalue.UnmarshalMap(item, &u); err != nil {
			return nil, fmt.Errorf("unmarshal unprocessed user: %w", err)
		}
		unprocessed = append(unprocessed, u.record())
	}
	return unprocessed, nil
}

// BatchPutInteractions implements store.Writer. A batch must not hold two
// interactions with the same (item, user) key.
func (s *Store) BatchPutInteractions(ctx context.Context, recs []models.InteractionRecord) (_ []models.InteractionRecord, err error) {
	if len(recs) == 0 {
		return nil, nil
	}
	defer observe("batch_write", s.tables.Interactions, time.Now(), &err)
	reqs := make([]types.WriteRequest, 0, len(recs))
	for _, r := range recs {
		item, err := attributevalue.MarshalMap(toInteractionItem(r))
		if err != nil {
			return nil, fmt.Errorf("marshal interaction %s: %w", r.Key(), err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	left, err := s.batchWrite(ctx, s.tables.Interactions, reqs)
	if err != nil {
		return nil, err
	}
	var unprocessed []models.InteractionRecord
	for _, item := range left {
		var it interactionItem
		if err = attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, fmt.Errorf("unmarshal unprocessed interaction: %w", err)
		}
		unprocessed = append(unprocessed, it.record())
	}
	return unprocessed, nil
}

// batchWrite issues one BatchWriteItem call and returns the items of any
// unprocessed put requests.
func (s *Store) batchWrite(ctx context.Context, table string, reqs []types.WriteRequest) ([]map[string]types.AttributeValue, error) {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	})
	if err != nil {
		return nil, fmt.Errorf("batch write %s: %w", table, err)
	}
	var left []map[string]types.AttributeValue
	for _, req := range out.UnprocessedItems[table] {
		if req.PutRequest != nil {
			left = append(left, req.PutRequest.Item)
		}
	}
	return left, nil
}

// stringKey reads a string attribute from a LastEvaluatedKey.
func stringKey(key map[string]types.AttributeValue, attr string) string {
	if key == nil {
		return ""
	}
	if v, ok := key[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
