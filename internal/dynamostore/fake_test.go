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
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeDynamo is an in-memory stand-in for the DynamoDB operations the store
// issues. It understands exactly the expressions the store builds.
type fakeDynamo struct {
	mu        sync.Mutex
	keyAttrs  map[string][]string
	tables    map[string]map[string]item
	userIndex string

	// rejectWrite leaves matching put requests unprocessed.
	rejectWrite func(table string, it item) bool
	// holdGets leaves one key unprocessed per BatchGetItem call while positive.
	holdGets int

	batchWrites int
	batchGets   int
}

func newFakeDynamo(t Tables) *fakeDynamo {
	return &fakeDynamo{
		keyAttrs: map[string][]string{
			t.Menus:        {"item_id"},
			t.Ingredients:  {"name"},
			t.Users:        {"user_id"},
			t.Interactions: {"item_id", "user_id"},
		},
		tables: map[string]map[string]item{
			t.Menus:        {},
			t.Ingredients:  {},
			t.Users:        {},
			t.Interactions: {},
		},
		userIndex: t.InteractionsUser,
	}
}

func str(it item, attr string) string {
	if v, ok := it[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func num(it item, attr string) int64 {
	if v, ok := it[attr].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseFloat(v.Value, 64)
		return int64(n)
	}
	return 0
}

func (f *fakeDynamo) keyOf(table string, it item) string {
	parts := make([]string, 0, 2)
	for _, attr := range f.keyAttrs[table] {
		parts = append(parts, str(it, attr))
	}
	return strings.Join(parts, "\x00")
}

func (f *fakeDynamo) table(name *string) (map[string]item, error) {
	tbl, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return tbl, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k := f.keyOf(aws.ToString(in.TableName), in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(item_id)" {
		if _, exists := tbl[k]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	tbl[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	if aws.ToString(in.UpdateExpression) != "SET #count = if_not_exists(#count, :zero) + :one" {
		return nil, fmt.Errorf("fake: unsupported update %q", aws.ToString(in.UpdateExpression))
	}
	k := f.keyOf(aws.ToString(in.TableName), in.Key)
	it, ok := tbl[k]
	if !ok {
		it = item{"name": in.Key["name"]}
	}
	next := num(it, "count") + 1
	updated := cloneItem(it)
	updated["count"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)}
	tbl[k] = updated
	return &dynamodb.UpdateItemOutput{}, nil
}

func cloneItem(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func (f *fakeDynamo) sorted(table string) ([]string, map[string]item) {
	tbl := f.tables[table]
	keys := make([]string, 0, len(tbl))
	for k := range tbl {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, tbl
}

func likedFilter(expr *string, it item) bool {
	if aws.ToString(expr) == "liked = :one" {
		return num(it, "liked") == 1
	}
	return true
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	keys, tbl := f.sorted(name)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := f.keyOf(name, in.ExclusiveStartKey)
		start, _ = slices.BinarySearch(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}
	end := len(keys)
	if in.Limit != nil && start+int(*in.Limit) < end {
		end = start + int(*in.Limit)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		if likedFilter(in.FilterExpression, tbl[k]) {
			out.Items = append(out.Items, tbl[k])
		}
	}
	if end < len(keys) && end > start {
		last := tbl[keys[end-1]]
		lek := item{}
		for _, attr := range f.keyAttrs[name] {
			lek[attr] = last[attr]
		}
		out.LastEvaluatedKey = lek
	}
	out.Count = int32(len(out.Items))
	if in.Select == types.SelectCount {
		out.Items = nil
	}
	return out, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	keys, tbl := f.sorted(name)

	var attr, want string
	switch {
	case in.IndexName != nil:
		if aws.ToString(in.IndexName) != f.userIndex {
			return nil, fmt.Errorf("fake: unknown index %s", aws.ToString(in.IndexName))
		}
		attr, want = "user_id", str(in.ExpressionAttributeValues, ":user")
	default:
		attr, want = "item_id", str(in.ExpressionAttributeValues, ":item")
	}

	var items []item
	for _, k := range keys {
		it := tbl[k]
		if str(it, attr) == want && likedFilter(in.FilterExpression, it) {
			items = append(items, it)
		}
	}
	if in.IndexName != nil {
		slices.SortStableFunc(items, func(a, b item) int {
			c := cmp.Compare(num(a, "created_at"), num(b, "created_at"))
			if in.ScanIndexForward != nil && !*in.ScanIndexForward {
				return -c
			}
			return c
		})
	}
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchWrites++
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for name, reqs := range in.RequestItems {
		tbl, err := f.table(aws.String(name))
		if err != nil {
			return nil, err
		}
		if len(reqs) > 25 {
			return nil, fmt.Errorf("fake: %d requests exceeds 25", len(reqs))
		}
		seen := make(map[string]bool)
		for _, req := range reqs {
			k := f.keyOf(name, req.PutRequest.Item)
			if seen[k] {
				return nil, fmt.Errorf("fake: duplicate key %q in batch", k)
			}
			seen[k] = true
			if f.rejectWrite != nil && f.rejectWrite(name, req.PutRequest.Item) {
				out.UnprocessedItems[name] = append(out.UnprocessedItems[name], req)
				continue
			}
			tbl[k] = req.PutRequest.Item
		}
	}
	return out, nil
}

func (f *fakeDynamo) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchGets++
	out := &dynamodb.BatchGetItemOutput{
		Responses:       map[string][]item{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for name, ka := range in.RequestItems {
		tbl, err := f.table(aws.String(name))
		if err != nil {
			return nil, err
		}
		if len(ka.Keys) > batchGetLimit {
			return nil, fmt.Errorf("fake: %d keys exceeds %d", len(ka.Keys), batchGetLimit)
		}
		keys := ka.Keys
		if f.holdGets > 0 && len(keys) > 0 {
			f.holdGets--
			out.UnprocessedKeys[name] = types.KeysAndAttributes{Keys: keys[len(keys)-1:]}
			keys = keys[:len(keys)-1]
		}
		for _, key := range keys {
			if it, ok := tbl[f.keyOf(name, key)]; ok {
				out.Responses[name] = append(out.Responses[name], it)
			}
		}
	}
	if len(out.UnprocessedKeys) == 0 {
		out.UnprocessedKeys = nil
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{}, nil
}
