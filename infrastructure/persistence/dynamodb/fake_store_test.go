package dynamodb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskboard/infrastructure/config"
	apperrors "taskboard/pkg/errors"
)

// fakeStore is an in-memory StoreClient. It enforces the same batch and
// transaction bounds as the production client so bound-handling paths are
// exercised for real, and it offers a one-shot beforePut hook for
// interleaving writes deterministically.
type fakeStore struct {
	mu     sync.Mutex
	specs  map[string]keySpec
	tables map[string]map[string]Item

	errOn     map[string]error
	beforePut func(table string, item Item)
}

type keySpec struct {
	pk string
	sk string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		specs: map[string]keySpec{
			"Users":         {pk: "userId"},
			"Projects":      {pk: attrPK, sk: attrSK},
			"Notifications": {pk: "userId", sk: "createdAt"},
		},
		tables: map[string]map[string]Item{
			"Users":         {},
			"Projects":      {},
			"Notifications": {},
		},
		errOn: map[string]error{},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		UsersTable:         "Users",
		ProjectsTable:      "Projects",
		NotificationsTable: "Notifications",
		EmailIndex:         "EmailIndex",
		UsernameIndex:      "UsernameIndex",
		UserProjectsIndex:  "UserProjectsIndex",
		AssignedTasksIndex: "AssignedTasksIndex",
		TaskIDIndex:        "TaskIdIndex",
	}
}

var _ StoreClient = (*fakeStore)(nil)

func attrString(item Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeStore) compositeKey(table string, item Item) string {
	spec := f.specs[table]
	key := attrString(item, spec.pk)
	if spec.sk != "" {
		key += "\x00" + attrString(item, spec.sk)
	}
	return key
}

func copyItem(item Item) Item {
	dup := make(Item, len(item))
	for k, v := range item {
		dup[k] = v
	}
	return dup
}

func (f *fakeStore) failure(op string) error {
	return f.errOn[op]
}

func (f *fakeStore) Get(_ context.Context, table string, key Key) (Item, error) {
	if err := f.failure("get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.tables[table][f.compositeKey(table, key)]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (f *fakeStore) Put(ctx context.Context, table string, item Item) error {
	if err := f.failure("put"); err != nil {
		return err
	}

	f.mu.Lock()
	hook := f.beforePut
	f.beforePut = nil
	f.mu.Unlock()
	if hook != nil {
		hook(table, item)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table][f.compositeKey(table, item)] = copyItem(item)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, table string, key Key) error {
	if err := f.failure("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tables[table], f.compositeKey(table, key))
	return nil
}

func (f *fakeStore) QueryPartition(_ context.Context, table, pkAttr, pkValue, skAttr, skPrefix string, forward bool) ([]Item, error) {
	if err := f.failure("query"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []Item
	for _, item := range f.tables[table] {
		if attrString(item, pkAttr) != pkValue {
			continue
		}
		if skPrefix != "" && !strings.HasPrefix(attrString(item, skAttr), skPrefix) {
			continue
		}
		items = append(items, copyItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		less := attrString(items[i], skAttr) < attrString(items[j], skAttr)
		if forward {
			return less
		}
		return !less
	})
	return items, nil
}

func (f *fakeStore) QueryIndex(_ context.Context, table, _, keyAttr, keyValue string) ([]Item, error) {
	if err := f.failure("query"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []Item
	for _, item := range f.tables[table] {
		if attrString(item, keyAttr) == keyValue {
			items = append(items, copyItem(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return f.compositeKey(table, items[i]) < f.compositeKey(table, items[j])
	})
	return items, nil
}

func (f *fakeStore) Scan(_ context.Context, table, filterAttr, filterValue string) ([]Item, error) {
	if err := f.failure("scan"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []Item
	for _, item := range f.tables[table] {
		if filterAttr != "" && attrString(item, filterAttr) != filterValue {
			continue
		}
		items = append(items, copyItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		return f.compositeKey(table, items[i]) < f.compositeKey(table, items[j])
	})
	return items, nil
}

func (f *fakeStore) Update(_ context.Context, table string, key Key, set Item, mustExist bool) (Item, error) {
	if err := f.failure("update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ck := f.compositeKey(table, key)
	item, ok := f.tables[table][ck]
	if !ok {
		if mustExist {
			return nil, ErrConditionFailed
		}
		item = copyItem(key)
	}
	updated := copyItem(item)
	for attr, value := range set {
		updated[attr] = value
	}
	f.tables[table][ck] = updated
	return copyItem(updated), nil
}

func (f *fakeStore) BatchGet(_ context.Context, table string, keys []Key) ([]Item, error) {
	if err := f.failure("batchget"); err != nil {
		return nil, err
	}
	if len(keys) > MaxBatchGetKeys {
		return nil, apperrors.NewValidationError("batch get exceeds the key bound")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []Item
	for _, key := range keys {
		if item, ok := f.tables[table][f.compositeKey(table, key)]; ok {
			items = append(items, copyItem(item))
		}
	}
	return items, nil
}

func (f *fakeStore) TransactWrite(_ context.Context, ops []TransactOp) error {
	if err := f.failure("transact"); err != nil {
		return err
	}
	if len(ops) > MaxTransactItems {
		return apperrors.NewTransactionTooLargeError(len(ops), MaxTransactItems)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, op := range ops {
		if op.Put == nil && op.Delete == nil {
			return apperrors.NewValidationError("transact op has neither put nor delete")
		}
	}
	for _, op := range ops {
		switch {
		case op.Put != nil:
			f.tables[op.Table][f.compositeKey(op.Table, op.Put)] = copyItem(op.Put)
		case op.Delete != nil:
			delete(f.tables[op.Table], f.compositeKey(op.Table, op.Delete))
		}
	}
	return nil
}

func (f *fakeStore) itemCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}
