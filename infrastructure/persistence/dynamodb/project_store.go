package dynamodb

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	"taskboard/infrastructure/config"
	apperrors "taskboard/pkg/errors"
)

// projectPatchMask whitelists the mutable metadata fields.
var projectPatchMask = allowFields("name", "description", "status", "priority", "dueDate")

// ProjectStore implements ports.ProjectStore on the merged project
// partition: one METADATA record, one USER#<id> record per member and the
// project's TASK#<id> records all share the PROJ#<id> partition key.
type ProjectStore struct {
	client      StoreClient
	table       string
	memberIndex string
	activity    ports.ActivityLog
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(client StoreClient, cfg *config.Config, activity ports.ActivityLog, logger *zap.Logger) *ProjectStore {
	return &ProjectStore{
		client:      client,
		table:       cfg.ProjectsTable,
		memberIndex: cfg.UserProjectsIndex,
		activity:    activity,
		validate:    validator.New(),
		logger:      logger,
	}
}

var _ ports.ProjectStore = (*ProjectStore)(nil)

// Create writes the metadata record plus one membership record per entry in
// the union of creator and members as a single transaction: either the
// project exists
// with its full initial member set or it does not exist at all. A member
// set too large for the transaction bound fails whole with
// TRANSACTION_TOO_LARGE; nothing is written.
func (s *ProjectStore) Create(ctx context.Context, in ports.CreateProjectInput) (*entities.Project, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	memberSet := map[string]struct{}{in.CreatedBy: {}}
	for _, m := range in.Members {
		memberSet[m] = struct{}{}
	}
	members := make([]string, 0, len(memberSet))
	for m := range memberSet {
		members = append(members, m)
	}
	sort.Strings(members)

	now := nowISO()
	project := &entities.Project{
		ProjectID:   uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		Members:     members,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	metaItem, err := encodeProjectMetadata(project)
	if err != nil {
		return nil, err
	}
	ops := make([]TransactOp, 0, len(members)+1)
	ops = append(ops, TransactOp{Table: s.table, Put: metaItem})
	for _, m := range members {
		ops = append(ops, TransactOp{Table: s.table, Put: membershipItem(project.ProjectID, m)})
	}

	if err := s.client.TransactWrite(ctx, ops); err != nil {
		s.logger.Error("failed to create project",
			zap.Error(err),
			zap.String("createdBy", in.CreatedBy),
			zap.Int("members", len(members)),
		)
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("projectId", project.ProjectID),
		zap.String("createdBy", project.CreatedBy),
		zap.Int("members", len(members)),
	)
	s.record("project_created", map[string]any{"projectId": project.ProjectID, "createdBy": project.CreatedBy})
	return project, nil
}

// GetDetails range-queries the whole partition and reconstructs the project
// from its metadata and membership records. A partition with no metadata
// record, even one holding stray membership rows, reads as (nil, nil).
func (s *ProjectStore) GetDetails(ctx context.Context, projectID string) (*entities.Project, error) {
	items, err := s.client.QueryPartition(ctx, s.table, attrPK, projectPK(projectID), attrSK, "", true)
	if err != nil {
		return nil, err
	}
	project, _, err := decodeProjectPartition(items)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Update patches the metadata record only, whitelisted to the mutable
// fields. An effectively empty patch is a read-through. The returned
// project reflects the new metadata but carries no membership.
func (s *ProjectStore) Update(ctx context.Context, projectID string, patch map[string]any) (*entities.Project, error) {
	set, recognized, err := projectPatchMask.compile(patch, nowISO())
	if err != nil {
		return nil, err
	}
	if recognized == 0 {
		s.logger.Debug("project patch has no mutable fields, reading through", zap.String("projectId", projectID))
		return s.GetDetails(ctx, projectID)
	}

	newItem, err := s.client.Update(ctx, s.table, projectMetadataKey(projectID), set, true)
	if err == ErrConditionFailed {
		return nil, apperrors.NewNotFoundError("project")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("project updated", zap.String("projectId", projectID), zap.Int("fields", recognized))
	return decodeProjectMetadata(newItem)
}

// AddMember links a user into the project with a single put. Not
// transactional with anything: adds and removes of different members
// commute (disjoint keys), but racing membership writes against an
// uncommitted Create of the same project is undefined.
func (s *ProjectStore) AddMember(ctx context.Context, projectID, memberID string) error {
	if err := s.client.Put(ctx, s.table, membershipItem(projectID, memberID)); err != nil {
		return err
	}
	s.logger.Debug("member added", zap.String("projectId", projectID), zap.String("memberId", memberID))
	return nil
}

// RemoveMember unlinks a user with a single delete. Same consistency
// caveats as AddMember.
func (s *ProjectStore) RemoveMember(ctx context.Context, projectID, memberID string) error {
	if err := s.client.Delete(ctx, s.table, membershipKey(projectID, memberID)); err != nil {
		return err
	}
	s.logger.Debug("member removed", zap.String("projectId", projectID), zap.String("memberId", memberID))
	return nil
}

// Delete enumerates the partition and deletes every record in it, whatever
// its kind, in transaction-sized batches, then re-queries until the
// partition reads empty. Partitions
// larger than one transaction are paged, never truncated; each batch is
// individually atomic but the deletion as a whole is not.
func (s *ProjectStore) Delete(ctx context.Context, projectID string) error {
	deleted := 0
	for {
		items, err := s.client.QueryPartition(ctx, s.table, attrPK, projectPK(projectID), attrSK, "", true)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			break
		}

		ops := make([]TransactOp, 0, len(items))
		for _, item := range items {
			ops = append(ops, TransactOp{
				Table: s.table,
				Delete: Key{
					attrPK: item[attrPK],
					attrSK: item[attrSK],
				},
			})
		}
		for _, chunk := range chunkOps(ops, MaxTransactItems) {
			if err := s.client.TransactWrite(ctx, chunk); err != nil {
				return err
			}
			deleted += len(chunk)
		}
	}

	s.logger.Info("project deleted",
		zap.String("projectId", projectID),
		zap.Int("records", deleted),
	)
	s.record("project_deleted", map[string]any{"projectId": projectID, "records": deleted})
	return nil
}

// GetByUserID queries the reverse membership index and returns bare project
// references. Resolving details is a separate batched fetch (GetByIDs).
func (s *ProjectStore) GetByUserID(ctx context.Context, userID string) ([]entities.ProjectRef, error) {
	items, err := s.client.QueryIndex(ctx, s.table, s.memberIndex, attrSK, memberSK(userID))
	if err != nil {
		return nil, err
	}

	refs := make([]entities.ProjectRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, entities.ProjectRef{
			ProjectID: strings.TrimPrefix(partitionKeyOf(item), projectKeyPrefix),
		})
	}
	return refs, nil
}

// GetByIDs batch-reads metadata records for a de-duplicated id list.
// Membership is not hydrated on this path; Members is empty on every
// returned project.
func (s *ProjectStore) GetByIDs(ctx context.Context, projectIDs []string) ([]entities.Project, error) {
	keys := make([]Key, 0, len(projectIDs))
	seen := make(map[string]struct{}, len(projectIDs))
	for _, id := range projectIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, projectMetadataKey(id))
	}
	if len(keys) == 0 {
		return []entities.Project{}, nil
	}

	items, err := s.client.BatchGet(ctx, s.table, keys)
	if err != nil {
		return nil, err
	}

	projects := make([]entities.Project, 0, len(items))
	for _, item := range items {
		p, err := decodeProjectMetadata(item)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (s *ProjectStore) record(event string, fields map[string]any) {
	if s.activity != nil {
		s.activity.Record(event, fields)
	}
}
