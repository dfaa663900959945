package dynamodb

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	"taskboard/infrastructure/config"
	apperrors "taskboard/pkg/errors"
)

// userPatchMask ignores the immutable user fields no patch may touch.
// email and username double as index keys, so mutating them in place would
// desync the uniqueness indexes.
var userPatchMask = denyFields("userId", "email", "username", "createdAt", "updatedAt")

// UserStore implements ports.UserStore on the flat Users table.
type UserStore struct {
	client        StoreClient
	table         string
	emailIndex    string
	usernameIndex string
	avatars       ports.AvatarStore
	activity      ports.ActivityLog
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewUserStore creates a new UserStore. avatars and activity are optional
// collaborators; pass nil to disable avatar cleanup or activity records.
func NewUserStore(client StoreClient, cfg *config.Config, avatars ports.AvatarStore, activity ports.ActivityLog, logger *zap.Logger) *UserStore {
	return &UserStore{
		client:        client,
		table:         cfg.UsersTable,
		emailIndex:    cfg.EmailIndex,
		usernameIndex: cfg.UsernameIndex,
		avatars:       avatars,
		activity:      activity,
		validate:      validator.New(),
		logger:        logger,
	}
}

var _ ports.UserStore = (*UserStore)(nil)

// Create registers a user after advisory uniqueness checks on email and
// username. The two index lookups and the put are separate remote calls:
// concurrent registrations with the same email or username can all pass the
// checks and all succeed. The guarantee is best-effort, not linearizable.
func (s *UserStore) Create(ctx context.Context, in ports.CreateUserInput) (*entities.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if existing, err := s.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("email %q is already registered", in.Email))
	}
	if existing, err := s.GetByUsername(ctx, in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("username %q is already taken", in.Username))
	}

	now := nowISO()
	role := in.Role
	if role == "" {
		role = entities.RoleUser
	}
	settings := in.NotificationSettings
	if settings == nil {
		settings = entities.DefaultNotificationSettings()
	}

	user := &entities.User{
		UserID:               uuid.NewString(),
		Email:                in.Email,
		Username:             in.Username,
		PasswordHash:         in.PasswordHash,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Role:                 role,
		Position:             in.Position,
		Department:           in.Department,
		Bio:                  in.Bio,
		Phone:                in.Phone,
		Avatar:               in.Avatar,
		NotificationSettings: settings,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	item, err := encodeUser(user)
	if err != nil {
		return nil, err
	}
	if err := s.client.Put(ctx, s.table, item); err != nil {
		s.logger.Error("failed to create user", zap.Error(err), zap.String("email", in.Email))
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("userId", user.UserID),
		zap.String("username", user.Username),
	)
	s.record("user_created", map[string]any{"userId": user.UserID, "username": user.Username})
	return user, nil
}

// GetByID looks a user up by primary key. Returns (nil, nil) when absent.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*entities.User, error) {
	item, err := s.client.Get(ctx, s.table, userKey(userID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return decodeUser(item)
}

// GetByEmail queries the email index, expecting at most one match; the
// first match wins if the advisory uniqueness guarantee has been violated.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return s.getByIndex(ctx, s.emailIndex, "email", email)
}

// GetByUsername queries the username index; same contract as GetByEmail.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.getByIndex(ctx, s.usernameIndex, "username", username)
}

func (s *UserStore) getByIndex(ctx context.Context, index, attr, value string) (*entities.User, error) {
	items, err := s.client.QueryIndex(ctx, s.table, index, attr, value)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeUser(items[0])
}

// GetByIDs resolves many users in one de-duplicated batch read. Unknown ids
// are silently absent from the result.
func (s *UserStore) GetByIDs(ctx context.Context, userIDs []string) ([]entities.User, error) {
	keys := make([]Key, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, userKey(id))
	}
	if len(keys) == 0 {
		return []entities.User{}, nil
	}

	items, err := s.client.BatchGet(ctx, s.table, keys)
	if err != nil {
		return nil, err
	}
	return decodeUsers(items)
}

// Update applies a partial patch to the user. Immutable fields present in
// the patch are ignored; a patch that contains nothing else is a
// read-through.
func (s *UserStore) Update(ctx context.Context, userID string, patch map[string]any) (*entities.User, error) {
	set, recognized, err := userPatchMask.compile(patch, nowISO())
	if err != nil {
		return nil, err
	}
	if recognized == 0 {
		s.logger.Debug("user patch has no mutable fields, reading through", zap.String("userId", userID))
		return s.GetByID(ctx, userID)
	}

	newItem, err := s.client.Update(ctx, s.table, userKey(userID), set, true)
	if err == ErrConditionFailed {
		return nil, apperrors.NewNotFoundError("user")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("user updated", zap.String("userId", userID), zap.Int("fields", recognized))
	return decodeUser(newItem)
}

// Delete removes the account. If the user carried an avatar URL, the
// underlying object is deleted through the object-storage collaborator,
// best-effort: cleanup failure is logged and never fails the deletion.
func (s *UserStore) Delete(ctx context.Context, userID string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	if err := s.client.Delete(ctx, s.table, userKey(userID)); err != nil {
		return err
	}

	if user.Avatar != "" && s.avatars != nil {
		if err := s.avatars.Delete(ctx, user.Avatar); err != nil {
			s.logger.Warn("avatar cleanup failed",
				zap.String("userId", userID),
				zap.String("avatar", user.Avatar),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("user deleted", zap.String("userId", userID))
	s.record("user_deleted", map[string]any{"userId": userID})
	return nil
}

// ScanAll reads every user with a full-table scan. Development only; cost
// scales with table size, not selectivity.
func (s *UserStore) ScanAll(ctx context.Context) ([]entities.User, error) {
	s.logger.Warn("scanning the whole users table")
	items, err := s.client.Scan(ctx, s.table, "", "")
	if err != nil {
		return nil, err
	}
	return decodeUsers(items)
}

func (s *UserStore) record(event string, fields map[string]any) {
	if s.activity != nil {
		s.activity.Record(event, fields)
	}
}
