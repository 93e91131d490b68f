package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/utils"
)

// PurposePaymentEdit is the signed-action purpose for guest payment fixes.
const PurposePaymentEdit = "payment-edit"

// PaymentService reviews bank-transfer payments. Approval and rejection only
// apply to bankak orders; cash-on-delivery settles at the door.
type PaymentService struct {
	db       *gorm.DB
	mailer   Mailer
	queue    *MailQueue
	invoices InvoiceRenderer
	storage  Storage

	linkSecret string
	linkTTL    time.Duration
	baseURL    string
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, mailer Mailer, queue *MailQueue, invoices InvoiceRenderer, storage Storage, linkSecret, baseURL string, linkTTL time.Duration) *PaymentService {
	return &PaymentService{
		db:         db,
		mailer:     mailer,
		queue:      queue,
		invoices:   invoices,
		storage:    storage,
		linkSecret: linkSecret,
		linkTTL:    linkTTL,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Approve marks a bank transfer as verified and moves the order into
// processing. The PDF invoice and the customer notification are best-effort;
// the approval itself is not rolled back if either fails. The notification is
// sent synchronously so the admin sees delivery problems immediately.
func (s *PaymentService) Approve(orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadBankakOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != models.PaymentStatusAwaitingApproval {
		return nil, &ConflictError{Reason: fmt.Sprintf("payment is %s, not awaiting approval", order.PaymentStatus)}
	}

	if err := s.db.Model(order).Updates(map[string]interface{}{
		"payment_status": models.PaymentStatusVerified,
		"status":         models.OrderStatusProcessing,
	}).Error; err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentStatusVerified
	order.Status = models.OrderStatusProcessing

	var attachments []MailAttachment
	if invoice, err := s.invoices.Render(order); err != nil {
		log.Printf("[Payment] invoice generation failed for order %s: %v", order.ID, err)
	} else {
		attachments = append(attachments, MailAttachment{
			Filename:    fmt.Sprintf("invoice-%s.pdf", order.ID),
			ContentType: "application/pdf",
			Data:        invoice,
		})
	}

	if order.User != nil && order.User.Email != "" {
		err := s.mailer.Send(MailMessage{
			To:          order.User.Email,
			Subject:     "Payment approved",
			Body:        fmt.Sprintf("Your payment for order %s was verified. The order is now being processed.", order.ID),
			Attachments: attachments,
		})
		if err != nil {
			log.Printf("[Payment] approval mail failed for order %s: %v", order.ID, err)
		}
	}

	return order, nil
}

// Reject fails a bank transfer, cancels the order, and mails the customer a
// signed, time-boxed link to resubmit the payment details.
func (s *PaymentService) Reject(orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.loadBankakOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != models.PaymentStatusAwaitingApproval {
		return nil, &ConflictError{Reason: fmt.Sprintf("payment is %s, not awaiting approval", order.PaymentStatus)}
	}

	if err := s.db.Model(order).Updates(map[string]interface{}{
		"payment_status":   models.PaymentStatusFailed,
		"status":           models.OrderStatusCancelled,
		"rejection_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentStatusFailed
	order.Status = models.OrderStatusCancelled
	order.RejectionReason = reason

	link, err := s.EditLink(order.ID)
	if err != nil {
		log.Printf("[Payment] failed to build edit link for order %s: %v", order.ID, err)
	}

	if order.User != nil && order.User.Email != "" {
		body := fmt.Sprintf("Your payment for order %s was rejected.", order.ID)
		if reason != "" {
			body += " Reason: " + reason + "."
		}
		if link != "" {
			body += " You can fix the payment details here: " + link
		}
		s.queue.Enqueue(MailMessage{
			To:      order.User.Email,
			Subject: "Payment rejected",
			Body:    body,
		})
	}

	return order, nil
}

// EditLink builds the signed payment-edit URL for an order.
func (s *PaymentService) EditLink(orderID uuid.UUID) (string, error) {
	token, err := utils.GenerateSignedAction(s.linkSecret, PurposePaymentEdit, orderID, s.linkTTL)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/api/payments/edit?token=" + token, nil
}

// OrderForEditToken resolves a signed edit token to its order. The signature
// is the sole authorization; no session is required.
func (s *PaymentService) OrderForEditToken(token string) (*models.Order, error) {
	orderID, err := utils.ParseSignedAction(s.linkSecret, PurposePaymentEdit, token)
	if err != nil {
		return nil, &AuthorizationError{Reason: fmt.Sprintf("invalid edit token: %v", err)}
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Resubmit lets the customer replace the transaction ID and receipt on a
// failed payment via a signed link, returning it to the review queue. Only the
// payment status moves; fulfillment stays untouched.
func (s *PaymentService) Resubmit(token, transactionID string, receipt []byte, receiptName string) (*models.Order, error) {
	order, err := s.OrderForEditToken(token)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != models.PaymentStatusFailed {
		return nil, &ConflictError{Reason: "payment is not in a failed state"}
	}

	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
	}

	var existing models.Order
	err = s.db.Where("transaction_id = ? AND id <> ?", transactionID, order.ID).First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Reason: "transaction id already used"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	updates := map[string]interface{}{
		"transaction_id": transactionID,
		"payment_status": models.PaymentStatusAwaitingApproval,
	}

	if len(receipt) > 0 {
		if path, err := s.storage.Put("receipts", receiptName, receipt); err != nil {
			log.Printf("[Payment] receipt upload failed for order %s: %v", order.ID, err)
		} else {
			updates["receipt_path"] = path
		}
	}

	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.db.First(order, "id = ?", order.ID).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PaymentService) loadBankakOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("User").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if order.PaymentMethod != models.PaymentMethodBankak {
		return nil, &ConflictError{Reason: "payment review applies to bank transfer orders only"}
	}

	return &order, nil
}
