package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/realtime"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/metrics"
	"github.com/josephowusu/bizcore/pkg/validator"
)

// LiveChannel is the push mechanism connected recipients are reachable
// through. Pushes are fire-and-forget.
type LiveChannel interface {
	PushToUser(schema tenant.Schema, userID string, event realtime.Event)
}

// PrivilegeFilter selects the audience for a privilege-filtered dispatch:
// every user whose flag for the capability is "yes" in the feature's
// privilege table.
type PrivilegeFilter struct {
	Feature    features.Feature `json:"feature"`
	Capability string           `json:"capability"`
}

// DispatchInput describes one business event to fan out. Exactly one of
// Recipients (explicit mode) or Filter (privilege-filtered mode) must be set.
type DispatchInput struct {
	ActorUserID string           `json:"actor_user_id" validate:"required"`
	SessionID   string           `json:"session_id"`
	Title       string           `json:"title" validate:"required"`
	Message     string           `json:"message"`
	AlertType   models.AlertType `json:"alert_type" validate:"required"`
	EntityName  string           `json:"entity_name"`
	EntityID    string           `json:"entity_id"`
	Recipients  []string         `json:"recipients,omitempty"`
	Filter      *PrivilegeFilter `json:"filter,omitempty"`
}

// NotificationDTO is the API-facing notification payload. Status reflects the
// viewing user; the same record reads "unread" for one recipient and "read"
// for another.
type NotificationDTO struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	AlertType  models.AlertType `json:"alert_type"`
	EntityName string           `json:"entity_name,omitempty"`
	EntityID   string           `json:"entity_id,omitempty"`
	UsersList  []string         `json:"users_list"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ActorIdentity is the display identity stamped on pushed events, looked up
// once per dispatch and reused for every recipient.
type ActorIdentity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
}

// NotificationEvent is the payload pushed to each connected recipient.
type NotificationEvent struct {
	NotificationID string           `json:"notification_id"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	AlertType      models.AlertType `json:"alert_type"`
	Status         string           `json:"status"`
	EntityName     string           `json:"entity_name,omitempty"`
	EntityID       string           `json:"entity_id,omitempty"`
	Actor          ActorIdentity    `json:"actor"`
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID string
	Limit  int
	Offset int
}

// NotificationService computes recipient sets for business events, persists
// one auditable record per event, and pushes live events to connected
// recipients.
type NotificationService struct {
	settings *NotificationSettingsService
	hub      LiveChannel
	now      func() time.Time
	log      *zap.Logger
}

// NotificationConfig describes tunable behaviour for the NotificationService.
type NotificationConfig struct {
	Clock func() time.Time
}

// NewNotificationService constructs a NotificationService. The hub may be nil
// when no live channel is attached; records are still persisted.
func NewNotificationService(settings *NotificationSettingsService, hub LiveChannel, log *zap.Logger, cfg NotificationConfig) (*NotificationService, error) {
	if settings == nil {
		return nil, errors.New("notification service: settings service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &NotificationService{
		settings: settings,
		hub:      hub,
		now:      clock,
		log:      log,
	}, nil
}

// Dispatch resolves the recipient set for the event, persists one shared
// notification record, and pushes a live event to each connected recipient.
// Pushes happen only after the record is durable: a failed insert suppresses
// every push, so no user ever sees a live event with no record behind it.
func (s *NotificationService) Dispatch(ctx context.Context, handle *tenant.Handle, input DispatchInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, errors.New("notification service: tenant handle is required")
	}
	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}
	if !input.AlertType.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown alert type %q", input.AlertType))
	}
	if (len(input.Recipients) == 0) == (input.Filter == nil) {
		return nil, apperrors.NewBadRequest("exactly one of recipients or filter must be provided")
	}

	recipients, err := s.resolveRecipients(ctx, handle, input)
	if err != nil {
		return nil, err
	}

	usersList, err := json.Marshal(recipients)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal users list: %w", err)
	}

	record := models.Notification{
		Title:      strings.TrimSpace(input.Title),
		Message:    strings.TrimSpace(input.Message),
		AlertType:  input.AlertType,
		UsersList:  datatypes.JSON(usersList),
		EntityName: strings.TrimSpace(input.EntityName),
		EntityID:   strings.TrimSpace(input.EntityID),
		SessionID:  strings.TrimSpace(input.SessionID),
	}

	if err := handle.DB().WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}
	metrics.NotificationsDispatched.WithLabelValues(string(input.AlertType)).Inc()

	actor := s.lookupActor(ctx, handle, input.ActorUserID)
	s.pushToRecipients(handle.Schema(), recipients, record, actor)

	dto := mapNotification(record, recipients, false)
	return &dto, nil
}

func (s *NotificationService) resolveRecipients(ctx context.Context, handle *tenant.Handle, input DispatchInput) ([]string, error) {
	if len(input.Recipients) > 0 {
		return normaliseIDs(input.Recipients), nil
	}

	filter := input.Filter
	if !filter.Feature.Known() || strings.TrimSpace(filter.Capability) == "" {
		return nil, apperrors.NewBadRequest("filter requires a known feature and a capability name")
	}

	var records []models.PrivilegeRecord
	err := handle.DB().WithContext(ctx).
		Table(filter.Feature.PrivilegeTable()).
		Where("status = ?", models.PrivilegeStatusActive).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("notification service: load privilege records: %w", err)
	}

	var recipients []string
	for _, record := range records {
		if record.UserID == input.ActorUserID {
			continue
		}
		if granted, ok := record.Flags[filter.Capability].(string); !ok || granted != "yes" {
			continue
		}
		if !s.wantsNotification(ctx, handle, record.UserID, input.AlertType) {
			continue
		}
		recipients = append(recipients, record.UserID)
	}

	return normaliseIDs(recipients), nil
}

// wantsNotification applies the notification-relevance filter. High-priority
// alerts are not user-suppressible. For everything else the gate is coarse:
// the user is included as long as any channel is enabled for any category.
func (s *NotificationService) wantsNotification(ctx context.Context, handle *tenant.Handle, userID string, alertType models.AlertType) bool {
	if alertType.HighPriority() {
		return true
	}

	settings, err := s.settings.Get(ctx, handle, userID)
	if err != nil {
		s.log.Warn("settings lookup failed, excluding recipient",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return settings.AnyChannelEnabled()
}

func (s *NotificationService) lookupActor(ctx context.Context, handle *tenant.Handle, actorUserID string) ActorIdentity {
	identity := ActorIdentity{UserID: actorUserID, DisplayName: actorUserID}

	var user models.User
	err := handle.DB().WithContext(ctx).
		Where("id = ?", actorUserID).
		Take(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("actor identity lookup failed", zap.String("user_id", actorUserID), zap.Error(err))
		}
		return identity
	}

	identity.Username = user.Username
	if name := user.DisplayName(); name != "" {
		identity.DisplayName = name
	}
	return identity
}

func (s *NotificationService) pushToRecipients(schema tenant.Schema, recipients []string, record models.Notification, actor ActorIdentity) {
	if s.hub == nil {
		return
	}

	event := realtime.Event{
		Event: "notification.created",
		Data: NotificationEvent{
			NotificationID: record.ID,
			Title:          record.Title,
			Message:        record.Message,
			AlertType:      record.AlertType,
			Status:         "unread",
			EntityName:     record.EntityName,
			EntityID:       record.EntityID,
			Actor:          actor,
		},
	}

	for _, userID := range recipients {
		s.hub.PushToUser(schema, userID, event)
	}
}

// MarkRead records that the user has read the notification. The read marker
// is a set-membership row with a unique (notification, user) index inserted
// with ON CONFLICT DO NOTHING, so concurrent or repeated calls are atomic and
// idempotent - no read can ever be lost to a racing writer.
func (s *NotificationService) MarkRead(ctx context.Context, handle *tenant.Handle, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, errors.New("notification service: tenant handle is required")
	}
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" || notificationID == "" {
		return nil, apperrors.ErrMissingParameter
	}

	var record models.Notification
	err := handle.DB().WithContext(ctx).
		Where("id = ?", notificationID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	recipients := decodeUsersList(record.UsersList)
	if !containsString(recipients, userID) {
		// Only recipients may mark a notification read; non-recipients get
		// the same answer as a missing record.
		return nil, apperrors.ErrNotFound
	}

	marker := models.NotificationRead{
		NotificationID: record.ID,
		UserID:         userID,
		ReadAt:         s.now().UTC(),
	}
	err = handle.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&marker).Error
	if err != nil && !isUniqueConstraintError(err) {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	if s.hub != nil {
		s.hub.PushToUser(handle.Schema(), userID, realtime.Event{
			Event: "notification.read",
			Data:  NotificationEvent{NotificationID: record.ID, Status: "read"},
		})
	}

	dto := mapNotification(record, recipients, true)
	return &dto, nil
}

// ListForUser returns the user's notifications ordered by recency, each
// stamped with that user's own read status, plus the unread count.
func (s *NotificationService) ListForUser(ctx context.Context, handle *tenant.Handle, input ListNotificationsInput) ([]NotificationDTO, int, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, 0, errors.New("notification service: tenant handle is required")
	}
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, 0, apperrors.ErrMissingParameter
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	// Recipient membership lives inside the serialized users list, which no
	// portable SQL predicate can index, so rows are filtered after decoding.
	// Fan-out audiences are bounded per tenant, which keeps this cheap.
	var rows []models.Notification
	err := handle.DB().WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	readSet, err := s.loadReadSet(ctx, handle, userID)
	if err != nil {
		return nil, 0, err
	}

	items := make([]NotificationDTO, 0, limit)
	unread := 0
	matched := 0
	for _, row := range rows {
		recipients := decodeUsersList(row.UsersList)
		if !containsString(recipients, userID) {
			continue
		}

		_, isRead := readSet[row.ID]
		if !isRead {
			unread++
		}

		matched++
		if matched <= offset || len(items) >= limit {
			continue
		}
		items = append(items, mapNotification(row, recipients, isRead))
	}

	return items, unread, nil
}

func (s *NotificationService) loadReadSet(ctx context.Context, handle *tenant.Handle, userID string) (map[string]struct{}, error) {
	var ids []string
	err := handle.DB().WithContext(ctx).
		Model(&models.NotificationRead{}).
		Where("user_id = ?", userID).
		Pluck("notification_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("notification service: load read markers: %w", err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// ReadBy returns the ids of recipients who have read the notification.
func (s *NotificationService) ReadBy(ctx context.Context, handle *tenant.Handle, notificationID string) ([]string, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, errors.New("notification service: tenant handle is required")
	}

	var ids []string
	err := handle.DB().WithContext(ctx).
		Model(&models.NotificationRead{}).
		Where("notification_id = ?", notificationID).
		Order("read_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("notification service: load readers: %w", err)
	}
	return ids, nil
}

func mapNotification(row models.Notification, recipients []string, isRead bool) NotificationDTO {
	status := "unread"
	if isRead {
		status = "read"
	}
	return NotificationDTO{
		ID:         row.ID,
		Title:      row.Title,
		Message:    row.Message,
		AlertType:  row.AlertType,
		EntityName: row.EntityName,
		EntityID:   row.EntityID,
		UsersList:  recipients,
		Status:     status,
		CreatedAt:  row.CreatedAt,
	}
}

func decodeUsersList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}
