package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dokaw/task-dash-gleam/configs"
	"github.com/dokaw/task-dash-gleam/internal/postgres"
	"github.com/dokaw/task-dash-gleam/internal/rabbitmq"
)

// Re-publishes unread notifications that have sat for a while back onto the
// push queue. The realtime channel is at-least-once by contract, so a second
// delivery of the same notification is harmless.
func main() {
	cfg := configs.InitConfig()
	args := os.Args
	if len(args) < 3 {
		log.Fatal("Insufficient arguments are provided in calling the command")
		return
	}

	// Notifications whose created_at is older than pastSeconds and still unread
	// are considered missed.
	pastSecondsStr := args[1]
	pastSeconds, err := strconv.ParseInt(pastSecondsStr, 10, 64)
	if err != nil {
		log.Fatal("Invalid input is given for the pastSeconds arg, it must be an integer", "provided_past_seconds", pastSecondsStr, "error", err)
		return
	}

	// Maximum number of notifications fetched per sweep.
	limitStr := args[2]
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		log.Fatal("Invalid input is given for the limit arg, it must be an integer", "provided_limit", limitStr, "error", err)
		return
	}

	ctx := context.Background()
	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("Postgres connection has been initialized successfully")

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
	slog.Info("RabbitMQ has been initialized successfully")

	slog.Info("Fetching missed notifications", "past_seconds_threshold", pastSeconds, "limit", limit)
	missed, err := storage.ListUnreadNotificationsBefore(ctx, int32(pastSeconds), int32(limit))
	if err != nil {
		slog.Error("Error occurred while fetching missed notifications", "error", err.Error())
		return
	}
	slog.Info("Missed notifications are fetched", "fetched_items_count", len(missed))

	queueName := cfg.RabbitMQ.NotificationsQueueName
	republishedCount := 0
	for i, notification := range missed {
		marshalled, err := json.Marshal(notification)
		if err != nil {
			slog.Error("There was an error in marshalling notification", "notification_id", notification.ID, "error", err.Error())
			// Skipped items are retried on the next sweep.
			continue
		}

		err = rabbitClient.PublishMessage(queueName, string(marshalled))
		if err != nil {
			slog.Error("Error occurred while re-publishing notification to push queue", "error", err.Error())
			continue
		}
		slog.Info("Notification is re-published successfully", "notification_id", notification.ID, "missed_count", len(missed), "item_index", i)
		republishedCount++
	}

	slog.Info("Missed notifications have been re-published", "missed_count", len(missed), "successful_republished_count", republishedCount)
}
