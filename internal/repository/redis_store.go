package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
)

const redisTxRetries = 5

// RedisStore is the key-value Store used as fallback when PostgreSQL is unreachable.
//
// Layout under prefix:
//
//	{prefix}:reports                      hash id -> report JSON
//	{prefix}:report_logs:{reportID}       list, newest first
//	{prefix}:notifications                zset "{seq}:{id}" scored by created_at in microseconds
//	{prefix}:notifications:seq            insertion counter; orders equal scores
//	{prefix}:notification:{id}            notification JSON without read_by
//	{prefix}:notification:{id}:read_by    set of user ids
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore constructs a store on client with keys under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "aw"
	}
	return &RedisStore{client: client, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

func (s *RedisStore) reportsKey() string { return s.prefix + ":reports" }

func (s *RedisStore) logsKey(reportID string) string { return s.prefix + ":report_logs:" + reportID }

func (s *RedisStore) notificationsKey() string { return s.prefix + ":notifications" }

func (s *RedisStore) notificationSeqKey() string { return s.notificationsKey() + ":seq" }

// notificationMember zero-pads seq so members with equal scores sort in insertion order.
func notificationMember(seq int64, id string) string { return fmt.Sprintf("%020d:%s", seq, id) }

func notificationMemberID(member string) string {
	if i := strings.IndexByte(member, ':'); i >= 0 {
		return member[i+1:]
	}
	return member
}

func (s *RedisStore) notificationKey(id string) string { return s.prefix + ":notification:" + id }

func (s *RedisStore) readByKey(id string) string { return s.notificationKey(id) + ":read_by" }

// Name identifies the backend.
func (s *RedisStore) Name() string { return "redis" }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrStorageUnavailable
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ListReports scans the report hash and filters in process.
func (s *RedisStore) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	all, err := s.allReports(ctx, s.client)
	if err != nil {
		return nil, err
	}
	out := make([]models.Report, 0, len(all))
	for _, r := range all {
		if matchesFilter(r, filter) {
			out = append(out, r)
		}
	}
	sortReports(out)
	return out, nil
}

// GetReport fetches one report.
func (s *RedisStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	raw, err := s.client.HGet(ctx, s.reportsKey(), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get report %s: %w", id, err)
	}
	var report models.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

// InsertReport stores a new report.
func (s *RedisStore) InsertReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	return s.putReport(ctx, s.client, report)
}

// UpsertReport writes the full record, keeping the stored campus, owner and created_at.
func (s *RedisStore) UpsertReport(ctx context.Context, report *models.Report) error {
	key := s.reportsKey()
	return s.withRetry(ctx, func(tx *redis.Tx) error {
		next := *report
		raw, err := tx.HGet(ctx, key, report.ID).Bytes()
		switch {
		case err == nil:
			var existing models.Report
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("decode report %s: %w", report.ID, err)
			}
			next.Campus = existing.Campus
			next.LecturerID = existing.LecturerID
			next.CreatedAt = existing.CreatedAt
		case !errors.Is(err, redis.Nil):
			return fmt.Errorf("redis get report %s: %w", report.ID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putReport(ctx, pipe, &next)
		})
		return err
	}, key)
}

// DeleteReport removes a report.
func (s *RedisStore) DeleteReport(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, s.reportsKey(), id).Result()
	if err != nil {
		return fmt.Errorf("redis delete report %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReports removes reports matching filter.
func (s *RedisStore) DeleteReports(ctx context.Context, filter models.ReportFilter) (int, error) {
	key := s.reportsKey()
	removed := 0
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		all, err := s.allReports(ctx, tx)
		if err != nil {
			return err
		}
		ids := make([]string, 0)
		for _, r := range all {
			if matchesFilter(r, filter) {
				ids = append(ids, r.ID)
			}
		}
		if len(ids) == 0 {
			removed = 0
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, ids...)
			return nil
		})
		removed = len(ids)
		return err
	}, key)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// TransitionStatus moves matching reports in one optimistic transaction on the report hash.
func (s *RedisStore) TransitionStatus(ctx context.Context, t models.StatusTransition) ([]string, error) {
	if targetsNothing(t) {
		return nil, nil
	}
	at := t.At
	if at.IsZero() {
		at = s.now()
	}
	key := s.reportsKey()
	filter := transitionFilter(t)
	var moved []string
	err := s.withRetry(ctx, func(tx *redis.Tx) error {
		all, err := s.allReports(ctx, tx)
		if err != nil {
			return err
		}
		moved = moved[:0]
		changed := make([]models.Report, 0)
		for _, r := range all {
			if !matchesFilter(r, filter) {
				continue
			}
			r.Status = t.To
			r.UpdatedAt = at
			changed = append(changed, r)
			moved = append(moved, r.ID)
		}
		if len(changed) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i := range changed {
				if err := s.putReport(ctx, pipe, &changed[i]); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, fmt.Errorf("transition reports %s->%s: %w", t.From, t.To, err)
	}
	sort.Strings(moved)
	return moved, nil
}

// AppendLog pushes the entry onto the report's list.
func (s *RedisStore) AppendLog(ctx context.Context, log *models.ReportLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.now()
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode report log: %w", err)
	}
	if err := s.client.LPush(ctx, s.logsKey(log.ReportID), payload).Err(); err != nil {
		return fmt.Errorf("redis append report log: %w", err)
	}
	return nil
}

// ListLogs returns the report's logs newest first.
func (s *RedisStore) ListLogs(ctx context.Context, reportID string, logType models.LogType) ([]models.ReportLog, error) {
	raws, err := s.client.LRange(ctx, s.logsKey(reportID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list report logs: %w", err)
	}
	out := make([]models.ReportLog, 0, len(raws))
	for _, raw := range raws {
		var log models.ReportLog
		if err := json.Unmarshal([]byte(raw), &log); err != nil {
			return nil, fmt.Errorf("decode report log: %w", err)
		}
		if logType == "" || log.Type == logType {
			out = append(out, log)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// InsertNotification stores n and evicts the oldest entries beyond retain by zset rank.
func (s *RedisStore) InsertNotification(ctx context.Context, n *models.Notification, retain int) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	body := *n
	body.ReadBy = nil
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	seq, err := s.client.Incr(ctx, s.notificationSeqKey()).Result()
	if err != nil {
		return fmt.Errorf("redis notification sequence: %w", err)
	}
	zkey := s.notificationsKey()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.notificationKey(n.ID), payload, 0)
		if len(n.ReadBy) > 0 {
			members := make([]interface{}, len(n.ReadBy))
			for i, id := range n.ReadBy {
				members[i] = id
			}
			pipe.SAdd(ctx, s.readByKey(n.ID), members...)
		}
		pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(n.CreatedAt.UnixMicro()), Member: notificationMember(seq, n.ID)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis insert notification: %w", err)
	}
	if retain <= 0 {
		return nil
	}
	// Rank 0 is the oldest entry; everything below the newest retain goes.
	stale, err := s.client.ZRange(ctx, zkey, 0, int64(-retain-1)).Result()
	if err != nil {
		return fmt.Errorf("redis scan stale notifications: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range stale {
			id := notificationMemberID(member)
			pipe.Del(ctx, s.notificationKey(id), s.readByKey(id))
		}
		pipe.ZRemRangeByRank(ctx, zkey, 0, int64(-retain-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis evict notifications: %w", err)
	}
	return nil
}

// ListNotifications returns notifications visible on campus, newest first.
func (s *RedisStore) ListNotifications(ctx context.Context, campus models.CampusCode) ([]models.Notification, error) {
	members, err := s.client.ZRevRange(ctx, s.notificationsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list notifications: %w", err)
	}
	ids := make([]string, len(members))
	for i, member := range members {
		ids[i] = notificationMemberID(member)
	}
	if len(ids) == 0 {
		return []models.Notification{}, nil
	}
	pipe := s.client.Pipeline()
	bodies := make([]*redis.StringCmd, len(ids))
	readers := make([]*redis.StringSliceCmd, len(ids))
	for i, id := range ids {
		bodies[i] = pipe.Get(ctx, s.notificationKey(id))
		readers[i] = pipe.SMembers(ctx, s.readByKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis load notifications: %w", err)
	}
	out := make([]models.Notification, 0, len(ids))
	for i := range ids {
		raw, err := bodies[i].Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis load notification %s: %w", ids[i], err)
		}
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", ids[i], err)
		}
		if !n.VisibleOn(campus) {
			continue
		}
		readBy, _ := readers[i].Result()
		sort.Strings(readBy)
		if readBy == nil {
			readBy = []string{}
		}
		n.ReadBy = readBy
		out = append(out, n)
	}
	return out, nil
}

// MarkNotificationRead adds userID to the read set.
func (s *RedisStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	exists, err := s.client.Exists(ctx, s.notificationKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis check notification %s: %w", id, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	if err := s.client.SAdd(ctx, s.readByKey(id), userID).Err(); err != nil {
		return fmt.Errorf("redis mark notification read: %w", err)
	}
	return nil
}

func (s *RedisStore) putReport(ctx context.Context, c redis.Cmdable, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.ID, err)
	}
	if err := c.HSet(ctx, s.reportsKey(), report.ID, payload).Err(); err != nil {
		return fmt.Errorf("redis put report %s: %w", report.ID, err)
	}
	return nil
}

func (s *RedisStore) allReports(ctx context.Context, c redis.Cmdable) ([]models.Report, error) {
	raw, err := c.HGetAll(ctx, s.reportsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list reports: %w", err)
	}
	out := make([]models.Report, 0, len(raw))
	for id, value := range raw {
		var r models.Report
		if err := json.Unmarshal([]byte(value), &r); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", id, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < redisTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %v: %w", keys, redis.TxFailedErr)
}
