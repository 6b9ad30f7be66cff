// Package events publica en Kafka los eventos de cambio de distintas.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/pkg/logger"
)

var jsonMarshal = json.Marshal

const (
	queueSize    = 1000
	writeTimeout = 10 * time.Second
)

// KafkaWriter parte de *kafka.Writer que usa el publicador.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ appbom.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher cola en memoria + goroutine de envío. Publish nunca bloquea: con la cola
// llena el evento se descarta con un warning.
type KafkaPublisher struct {
	writer    KafkaWriter
	events    chan appbom.Event
	log       *logger.Logger
	closeChan chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewKafkaPublisher crea el tópico si no existe y arranca el envío.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	log = log.Named("kafka_publisher")
	if conn, err := kafka.Dial("tcp", brokers[0]); err != nil {
		log.Warn().Err(err).Msg("no se pudo conectar para crear el tópico")
	} else {
		err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 3, ReplicationFactor: 1})
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("no se pudo crear el tópico (puede existir)")
		}
		_ = conn.Close()
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return newPublisher(w, log, queueSize)
}

func newPublisher(w KafkaWriter, log *logger.Logger, size int) *KafkaPublisher {
	p := &KafkaPublisher{
		writer:    w,
		events:    make(chan appbom.Event, size),
		log:       log,
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// Publish encola el evento.
func (p *KafkaPublisher) Publish(_ context.Context, e appbom.Event) {
	select {
	case <-p.closeChan:
		p.log.Warn().Str("event_type", string(e.Type)).Msg("publicador cerrado, evento descartado")
		return
	default:
	}
	select {
	case p.events <- e:
	default:
		p.log.Warn().
			Str("event_type", string(e.Type)).
			Int("company_id", e.CompanyID).
			Int64("bom_id", e.BOMID).
			Msg("cola de Kafka llena, evento descartado")
	}
}

func (p *KafkaPublisher) eventLoop() {
	defer close(p.done)
	for {
		select {
		case e := <-p.events:
			p.send(e)
		case <-p.closeChan:
			for {
				select {
				case e := <-p.events:
					p.send(e)
				default:
					return
				}
			}
		}
	}
}

// send la clave es empresa:distinta para conservar el orden por distinta.
func (p *KafkaPublisher) send(e appbom.Event) {
	value, err := jsonMarshal(e)
	if err != nil {
		p.log.Error().Err(err).Str("event_id", e.ID).Msg("no se pudo serializar el evento")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(e)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		p.log.Error().Err(err).
			Str("event_type", string(e.Type)).
			Int64("bom_id", e.BOMID).
			Msg("no se pudo publicar el evento")
	}
}

func messageKey(e appbom.Event) string {
	return strconv.Itoa(e.CompanyID) + ":" + strconv.FormatInt(e.BOMID, 10)
}

// Close envía lo pendiente y cierra el writer.
func (p *KafkaPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.log.Error().Err(err).Msg("error al cerrar el writer de Kafka")
		}
	})
}
