package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/scivar-kg/backend/internal/queue"
	"github.com/scivar-kg/backend/internal/util"
	"github.com/scivar-kg/backend/pkg/kg"
	"github.com/scivar-kg/backend/pkg/logger"
	"github.com/scivar-kg/backend/pkg/logger/console"
	"github.com/scivar-kg/backend/pkg/parse"
	"github.com/scivar-kg/backend/pkg/svo"
	"github.com/scivar-kg/backend/pkg/wikipedia"
	"github.com/scivar-kg/backend/pkg/wiktiwordnet"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// External collaborators
	tagger := parse.NewClient(parse.NewClientParams{
		BaseURL: util.GetEnv("TAGGER_URL"),
	})
	ontology := svo.NewClient(svo.NewClientParams{
		Endpoint: util.GetEnv("SVO_SPARQL_URL"),
	})
	encyclopedia := wikipedia.NewClient(wikipedia.NewClientParams{
		APIURL: util.GetEnv("WIKIPEDIA_API_URL"),
	})
	lexicon := wiktiwordnet.NewClient(wiktiwordnet.NewClientParams{
		Path: util.GetEnv("WWN_PATH"),
	})

	// Graph state
	graphPath := util.GetEnvString("GRAPH_PATH", "graph.json")
	synonymPath := util.GetEnvString("SYNONYM_PATH", "synonyms.json")
	indexPath := util.GetEnvString("SVO_INDEX_PATH", "svo_index.txt")

	store := kg.NewStore()
	store.LoadGraph(graphPath, synonymPath)
	entities := kg.NewEntityIndex()
	if remap, err := entities.Load(indexPath); err != nil {
		logger.Warn("Could not load entity index, starting empty", "path", indexPath, "err", err)
	} else {
		store.RemapEntityHashes(remap)
	}

	builder := kg.NewBuilder(kg.NewBuilderParams{
		Store:        store,
		Entities:     entities,
		Tagger:       tagger,
		Ontology:     ontology,
		Encyclopedia: encyclopedia,
		Lexicon:      lexicon,
		LookupLimit:  util.GetEnvInt("LOOKUP_PARALLEL", 3),
		MaxRetries:   util.GetEnvInt("LOOKUP_RETRIES", 2),
	})

	processor := &queue.BuildProcessor{
		Store:       store,
		Entities:    entities,
		Builder:     builder,
		GraphPath:   graphPath,
		SynonymPath: synonymPath,
		IndexPath:   indexPath,
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.BuildQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	// Single consumer channel with prefetch=1 so builds run one at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.BuildQueue:
					processingErr = processor.ProcessBuildMessage(ctx, string(qm.msg.Body))
				}

				// If there was an error send to retry or dead-letter, otherwise ack
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
