package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetbook-api/internal/email"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

// EmailPreference is the user preference key that turns booking emails off
// when set to false.
const EmailPreference = "email_notifications"

// Notifier stores a notification and pushes it to the user's live stream.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// NotificationDispatcher turns appointment and veterinarian changes into
// in-app notifications and emails.
type NotificationDispatcher struct {
	feed     realtime.Feed
	notifier Notifier
	users    repository.UserRepository
	vets     repository.VeterinarianRepository
	email    email.Service
	logger   *logger.Logger
}

func NewNotificationDispatcher(
	feed realtime.Feed,
	notifier Notifier,
	users repository.UserRepository,
	vets repository.VeterinarianRepository,
	emailSvc email.Service,
	logger *logger.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		feed:     feed,
		notifier: notifier,
		users:    users,
		vets:     vets,
		email:    emailSvc,
		logger:   logger,
	}
}

// Start subscribes to the feed and blocks until ctx is done.
func (d *NotificationDispatcher) Start(ctx context.Context) error {
	unsubAppointments, err := d.feed.Subscribe(ctx, realtime.Filter{Table: "appointments"}, func(c realtime.Change) {
		d.handleAppointment(ctx, c)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to appointments: %w", err)
	}
	defer unsubAppointments()

	unsubVets, err := d.feed.Subscribe(ctx, realtime.Filter{Table: "veterinarians"}, func(c realtime.Change) {
		d.handleVeterinarian(ctx, c)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to veterinarians: %w", err)
	}
	defer unsubVets()

	d.logger.Info("Notification dispatcher started")
	<-ctx.Done()
	d.logger.Info("Shutting down notification dispatcher")
	return nil
}

type message struct {
	title string
	body  string
}

func (d *NotificationDispatcher) handleAppointment(ctx context.Context, c realtime.Change) {
	if c.Record == nil {
		return
	}
	var apt, old model.Appointment
	if err := json.Unmarshal(c.Record, &apt); err != nil {
		d.logger.Warn("Dropping malformed appointment change", "error", err.Error())
		return
	}
	if c.OldRecord != nil {
		if err := json.Unmarshal(c.OldRecord, &old); err != nil {
			return
		}
	}

	var toOwner, toVet *message
	when := apt.Date + " at " + apt.Time
	switch {
	case c.Type == realtime.Insert:
		toOwner = &message{"Appointment requested", "Your visit on " + when + " is waiting for confirmation."}
		toVet = &message{"New appointment request", "A visit was requested for " + when + "."}
	case c.Type == realtime.Update && old.Status != apt.Status:
		switch apt.Status {
		case model.AppointmentStatusConfirmed:
			toOwner = &message{"Appointment confirmed", "Your visit on " + when + " is confirmed."}
		case model.AppointmentStatusCancelled:
			body := "The visit on " + when + " was cancelled."
			if apt.CancelReason != nil && *apt.CancelReason != "" {
				body += " Reason: " + *apt.CancelReason
			}
			toOwner = &message{"Appointment cancelled", body}
			toVet = &message{"Appointment cancelled", body}
		case model.AppointmentStatusCompleted:
			toOwner = &message{"Visit completed", "Thanks for visiting on " + when + "."}
		}
	}

	if toOwner != nil {
		d.deliver(ctx, apt.OwnerID, &apt.ID, *toOwner)
	}
	if toVet != nil {
		vet, err := d.vets.Get(ctx, apt.VeterinarianID)
		if err != nil {
			d.logger.Error(err, "Failed to load veterinarian for notification", "veterinarian_id", apt.VeterinarianID.String())
			return
		}
		d.deliver(ctx, vet.UserID, &apt.ID, *toVet)
	}
}

func (d *NotificationDispatcher) handleVeterinarian(ctx context.Context, c realtime.Change) {
	if c.Type != realtime.Update || c.Record == nil {
		return
	}
	var vet, old model.Veterinarian
	if err := json.Unmarshal(c.Record, &vet); err != nil {
		return
	}
	if c.OldRecord != nil {
		if err := json.Unmarshal(c.OldRecord, &old); err != nil {
			return
		}
	}
	if old.Status == vet.Status {
		return
	}

	switch vet.Status {
	case model.VeterinarianStatusApproved:
		d.deliver(ctx, vet.UserID, nil, message{"Profile approved", "Pet owners can now book visits with you."})
	case model.VeterinarianStatusRejected:
		d.deliver(ctx, vet.UserID, nil, message{"Profile not approved", "Your profile is hidden from booking. Contact the clinic admin for details."})
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, userID uuid.UUID, appointmentID *uuid.UUID, msg message) {
	n := &model.Notification{
		UserID:        userID,
		AppointmentID: appointmentID,
		Title:         msg.title,
		Body:          msg.body,
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Error(err, "Failed to create notification", "user_id", userID.String())
	}

	user, err := d.users.Get(ctx, userID)
	if err != nil {
		d.logger.Warn("Skipping email for unknown user", "user_id", userID.String())
		return
	}
	if enabled, ok := user.Preferences[EmailPreference].(bool); ok && !enabled {
		return
	}
	if err := d.email.SendCustom(ctx, user.Email, msg.title, "<p>"+html.EscapeString(msg.body)+"</p>"); err != nil {
		d.logger.Error(err, "Failed to send notification email", "user_id", userID.String())
	}
}
