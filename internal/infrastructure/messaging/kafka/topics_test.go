package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	topics  map[string]int
	created []kafka.TopicConfig
	err     error
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.err != nil {
		return m.err
	}
	for _, t := range topics {
		m.topics[t.Topic] = t.NumPartitions
		m.created = append(m.created, t)
	}
	return nil
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	var out []kafka.Partition
	for _, name := range topics {
		for i := 0; i < m.topics[name]; i++ {
			out = append(out, kafka.Partition{Topic: name, ID: i})
		}
	}
	return out, nil
}

func (m *mockConn) Close() error { return nil }

func TestTopicManager_CreateTopic(t *testing.T) {
	conn := &mockConn{topics: map[string]int{}}
	m := newTopicManager(conn, nil)

	require.NoError(t, m.CreateTopic(context.Background(), DefaultTopic("")))
	require.Len(t, conn.created, 1)
	assert.Equal(t, TopicAnalysisCompleted, conn.created[0].Topic)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
	assert.Equal(t, "604800000", conn.created[0].ConfigEntries[0].ConfigValue)

	// already exists: no second create
	require.NoError(t, m.CreateTopic(context.Background(), DefaultTopic("")))
	assert.Len(t, conn.created, 1)

	exists, err := m.TopicExists(context.Background(), TopicAnalysisCompleted)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, m.Close())
}

func TestTopicManager_CreateTopicErrors(t *testing.T) {
	m := newTopicManager(&mockConn{topics: map[string]int{}, err: errors.New("not controller")}, nil)
	ctx := context.Background()

	assert.Error(t, m.CreateTopic(ctx, TopicConfig{}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t"}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}))
	assert.Error(t, m.CreateTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestNewTopicManager_NoBrokers(t *testing.T) {
	_, err := NewTopicManager(nil, nil)
	assert.Error(t, err)
}

func TestEventEnvelope(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env, err := NewEventEnvelope("e1", "nmr.analysis.completed", at, map[string]int{"n": 2})
	require.NoError(t, err)
	assert.Equal(t, "nmrcheck", env.Source)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage("topic", "agg-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("agg-1"), msg.Key)
	assert.Equal(t, "nmr.analysis.completed", msg.Headers["event_type"])
	assert.Equal(t, at, msg.Timestamp)

	back, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, "e1", back.EventID)

	var payload map[string]int
	require.NoError(t, back.DecodePayload(&payload))
	assert.Equal(t, 2, payload["n"])
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte("{"))
	assert.Error(t, err)

	env := &EventEnvelope{Payload: []byte("null")}
	assert.Error(t, env.DecodePayload(&struct{}{}))
}

//Personal.AI order the ending
