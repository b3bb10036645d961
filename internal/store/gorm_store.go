package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldenputra/tixgate/internal/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.TicketTemplate, error) {
	var template models.TicketTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &template, nil
}

func (s *GormStore) HoldInventory(ctx context.Context, templateID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.TicketTemplate{}).
		Where("id = ? AND quantity_available > 0", templateID).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetTemplate(ctx, templateID); err != nil {
			return err
		}
		return ErrInventoryExhausted
	}
	return nil
}

func (s *GormStore) ReleaseInventory(ctx context.Context, templateID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.TicketTemplate{}).
		Where("id = ? AND quantity_available < quantity_total", templateID).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available + 1")).Error
}

func (s *GormStore) RestockSold(ctx context.Context, templateID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.TicketTemplate{}).
		Where("id = ? AND quantity_sold > 0", templateID).
		UpdateColumns(map[string]interface{}{
			"quantity_sold":      gorm.Expr("quantity_sold - 1"),
			"quantity_available": gorm.Expr("quantity_available + 1"),
		}).Error
}

func (s *GormStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		// Session references are freshly minted per checkout, so a unique
		// violation here means the pending-per-buyer-per-event index fired.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPendingReservationExists
		}
		return err
	}
	return nil
}

func (s *GormStore) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Template").First(&ticket, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *GormStore) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Template").First(&ticket, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *GormStore) GetTicketBySession(ctx context.Context, sessionRef string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Template").
		First(&ticket, "checkout_session_reference = ?", sessionRef).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *GormStore) GetPendingTicketForBuyer(ctx context.Context, buyerID, eventID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).Preload("Template").
		Where("buyer_account_id = ? AND event_id = ? AND payment_status = ?",
			buyerID, eventID, models.PaymentPending).
		First(&ticket).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *GormStore) ListTicketsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).Preload("Template").
		Where("buyer_account_id = ?", buyerID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

func (s *GormStore) ConfirmPayment(ctx context.Context, conf PaymentConfirmation) (bool, error) {
	won := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ticket{}).
			Where("id = ? AND payment_status = ?", conf.TicketID, models.PaymentPending).
			Updates(map[string]interface{}{
				"payment_status":    models.PaymentPaid,
				"code":              conf.Code,
				"payment_reference": conf.PaymentRef,
				"paid_at":           conf.PaidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.TicketTemplate{}).
			Where("id = ?", conf.TemplateID).
			UpdateColumn("quantity_sold", gorm.Expr("quantity_sold + 1")).Error; err != nil {
			return err
		}

		var attendees int64
		if err := tx.Model(&models.Ticket{}).
			Where("event_id = ? AND payment_status = ?", conf.EventID, models.PaymentPaid).
			Count(&attendees).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Event{}).
			Where("id = ?", conf.EventID).
			UpdateColumn("attendee_count", attendees).Error; err != nil {
			return err
		}

		payout := models.Payout{
			OrganizerID: conf.OrganizerID,
			EventID:     conf.EventID,
			Amount:      conf.Amount,
			Status:      models.PayoutPending,
			HoldUntil:   conf.HoldUntil,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     gorm.Expr("payouts.amount + ?", conf.Amount),
				"updated_at": time.Now(),
			}),
		}).Create(&payout).Error; err != nil {
			return err
		}

		won = true
		return nil
	})
	return won, err
}

func (s *GormStore) MarkFailed(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND payment_status = ?", ticketID, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"status":         models.TicketCancelled,
		})
	return res.RowsAffected == 1, res.Error
}

func (s *GormStore) MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			ticketID, models.TicketValid, models.PaymentPaid).
		Updates(map[string]interface{}{
			"status":  models.TicketUsed,
			"used_at": usedAt,
		})
	return res.RowsAffected == 1, res.Error
}

func (s *GormStore) MarkRefunded(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			ticketID, models.TicketValid, models.PaymentPaid).
		Update("status", models.TicketRefunded)
	return res.RowsAffected == 1, res.Error
}

func (s *GormStore) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&tickets).Error
	return tickets, err
}

func (s *GormStore) ExpireTicket(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND payment_status = ?", ticketID, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentFailed,
			"status":         models.TicketExpired,
		})
	return res.RowsAffected == 1, res.Error
}

func (s *GormStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *GormStore) RefundRate(ctx context.Context, eventID uuid.UUID) (float64, error) {
	var paid, refunded int64
	err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("event_id = ? AND payment_status = ?", eventID, models.PaymentPaid).
		Count(&paid).Error
	if err != nil {
		return 0, err
	}
	if paid == 0 {
		return 0, nil
	}
	err = s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("event_id = ? AND status = ?", eventID, models.TicketRefunded).
		Count(&refunded).Error
	if err != nil {
		return 0, err
	}
	return float64(refunded) / float64(paid), nil
}

func (s *GormStore) AddToPayoutHold(ctx context.Context, organizerID, eventID uuid.UUID, amount decimal.Decimal, holdUntil time.Time) error {
	payout := models.Payout{
		OrganizerID: organizerID,
		EventID:     eventID,
		Amount:      amount,
		Status:      models.PayoutPending,
		HoldUntil:   holdUntil,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("payouts.amount + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(&payout).Error
}

func (s *GormStore) DuePayouts(ctx context.Context, now time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	err := s.db.WithContext(ctx).
		Where("status = ? AND hold_until <= ?", models.PayoutPending, now).
		Find(&payouts).Error
	return payouts, err
}

func (s *GormStore) ReleasePayout(ctx context.Context, payoutID uuid.UUID, releaseRef string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ? AND status = ?", payoutID, models.PayoutPending).
		Updates(map[string]interface{}{
			"status":            models.PayoutReleased,
			"release_reference": releaseRef,
		})
	return res.RowsAffected == 1, res.Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
