package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cipherledger/internal/ciphertext"
	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	"cipherledger/pkg/platform/sentinel"
)

const (
	recordKeyPrefix = "ledger:record:"
	idLogKey        = "ledger:ids"
	sequenceKey     = "ledger:seq"

	fieldData       = "data"
	fieldSeq        = "seq"
	fieldDisclosure = "disclosure"
)

// createScript inserts the immutable part of a record, assigns the next
// sequence and appends the id to the log, all or nothing.
// KEYS: record, id log, sequence. ARGV: data, id. Returns 0 when the id exists.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local seq = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'seq', seq)
redis.call('RPUSH', KEYS[2], ARGV[2])
return seq
`)

// markScript sets the disclosure field once.
// KEYS: record. ARGV: disclosure. Returns -1 absent, 0 already verified, 1 applied.
var markScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HEXISTS', KEYS[1], 'disclosure') == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'disclosure', ARGV[1])
return 1
`)

type redisRecordData struct {
	ID        string          `json:"id"`
	Handle    string          `json:"handle"`
	Metadata  models.Metadata `json:"metadata"`
	Creator   string          `json:"creator"`
	CreatedAt time.Time       `json:"created_at"`
}

type redisDisclosure struct {
	Value      string    `json:"value"`
	Flag       bool      `json:"flag"`
	VerifiedAt time.Time `json:"verified_at"`
}

// RedisStore keeps each record in a hash. The immutable fields are written
// once by createScript; the disclosure is a separate field written once by
// markScript. Both scripts run atomically on the server.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(recordID id.RecordID) string {
	return recordKeyPrefix + recordID.String()
}

func (s *RedisStore) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	data, err := json.Marshal(redisRecordData{
		ID:        rec.ID.String(),
		Handle:    rec.Handle.Hex(),
		Metadata:  rec.Metadata,
		Creator:   rec.Creator.String(),
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	seq, err := createScript.Run(ctx, s.client,
		[]string{recordKey(rec.ID), idLogKey, sequenceKey},
		string(data), rec.ID.String(),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	if seq == 0 {
		return nil, fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	created := rec.Clone()
	created.Sequence = uint64(seq)
	created.Verified = false
	created.DisclosedValue = nil
	created.ClassificationFlag = nil
	created.VerifiedAt = nil
	return created, nil
}

func (s *RedisStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	fields, err := s.client.HGetAll(ctx, recordKey(recordID)).Result()
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	return decodeRedisRecord(fields)
}

func (s *RedisStore) ListIDs(ctx context.Context) ([]id.RecordID, error) {
	raw, err := s.client.LRange(ctx, idLogKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list records: %w", err)
	}
	ids := make([]id.RecordID, len(raw))
	for i, r := range raw {
		ids[i] = id.RecordID(r)
	}
	return ids, nil
}

func (s *RedisStore) MarkVerified(ctx context.Context, recordID id.RecordID, value uint64, flag bool, now time.Time) (*models.Record, error) {
	disclosure, err := json.Marshal(redisDisclosure{
		Value:      strconv.FormatUint(value, 10),
		Flag:       flag,
		VerifiedAt: now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal disclosure: %w", err)
	}
	res, err := markScript.Run(ctx, s.client, []string{recordKey(recordID)}, string(disclosure)).Int64()
	if err != nil {
		return nil, fmt.Errorf("mark record verified: %w", err)
	}
	if res == -1 {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	rec, err := s.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if res == 0 {
		return rec, fmt.Errorf("record %s already verified: %w", recordID, sentinel.ErrAlreadyUsed)
	}
	return rec, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeRedisRecord(fields map[string]string) (*models.Record, error) {
	var data redisRecordData
	if err := json.Unmarshal([]byte(fields[fieldData]), &data); err != nil {
		return nil, fmt.Errorf("stored record: %w", err)
	}
	h, err := ciphertext.ParseHandleHex(data.Handle)
	if err != nil {
		return nil, fmt.Errorf("stored handle: %w", err)
	}
	seq, err := strconv.ParseUint(fields[fieldSeq], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stored sequence: %w", err)
	}
	rec := &models.Record{
		ID:        id.RecordID(data.ID),
		Handle:    h,
		Metadata:  data.Metadata,
		Creator:   id.Identity(data.Creator),
		CreatedAt: data.CreatedAt,
		Sequence:  seq,
	}
	if raw, ok := fields[fieldDisclosure]; ok {
		var d redisDisclosure
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("stored disclosure: %w", err)
		}
		v, err := strconv.ParseUint(d.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stored disclosed value: %w", err)
		}
		rec.Verified = true
		rec.DisclosedValue = &v
		rec.ClassificationFlag = &d.Flag
		rec.VerifiedAt = &d.VerifiedAt
	}
	return rec, nil
}
