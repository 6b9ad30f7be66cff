package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/pkg/logger"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	return m.Called().Error(0)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*logger.Logger, *syncBuffer) {
	out := &syncBuffer{}
	return logger.New(logger.Config{Env: "production", Level: "warn", Output: out}), out
}

func event(bomID int64) appbom.Event {
	return appbom.Event{ID: "ev", Type: appbom.EventBOMUpdated, CompanyID: 3, BOMID: bomID, Action: bom.ActionUpdate, UserID: "u"}
}

func TestKafkaPublisher_EnviaYCierra(t *testing.T) {
	w := new(MockKafkaWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)
	w.On("Close").Return(nil)
	log, _ := testLogger()

	p := newPublisher(w, log, 10)
	p.Publish(context.Background(), event(42))
	p.Close()
	p.Close()

	w.AssertNumberOfCalls(t, "WriteMessages", 1)
	w.AssertNumberOfCalls(t, "Close", 1)
	msgs := w.Calls[0].Arguments.Get(1).([]kafka.Message)
	require.Len(t, msgs, 1)
	assert.Equal(t, "3:42", string(msgs[0].Key))
	var got appbom.Event
	require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
	assert.Equal(t, appbom.EventBOMUpdated, got.Type)
	assert.Equal(t, int64(42), got.BOMID)
}

func TestKafkaPublisher_ColaLlenaDescarta(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var once sync.Once
	w := new(MockKafkaWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		once.Do(func() {
			started <- struct{}{}
			<-release
		})
	}).Return(nil)
	w.On("Close").Return(nil)
	log, out := testLogger()

	p := newPublisher(w, log, 1)
	p.Publish(context.Background(), event(1))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("el envío no arrancó")
	}
	p.Publish(context.Background(), event(2))
	p.Publish(context.Background(), event(3))
	assert.Contains(t, out.String(), "cola de Kafka llena, evento descartado")

	close(release)
	p.Close()
	w.AssertNumberOfCalls(t, "WriteMessages", 2)

	p.Publish(context.Background(), event(4))
	assert.Contains(t, out.String(), "publicador cerrado")
}

func TestKafkaPublisher_Errores(t *testing.T) {
	w := new(MockKafkaWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka caído"))
	log, out := testLogger()
	p := &KafkaPublisher{writer: w, log: log}

	p.send(event(1))
	assert.Contains(t, out.String(), "no se pudo publicar el evento")

	old := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("marshal") }
	defer func() { jsonMarshal = old }()
	p.send(event(2))
	assert.Contains(t, out.String(), "no se pudo serializar el evento")
	w.AssertNumberOfCalls(t, "WriteMessages", 1)
}
