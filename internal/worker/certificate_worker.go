package worker

// certificate_worker.go renders the warranty certificate PDF of an approved
// warranty and queues it for email delivery to the vehicle owner.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ewarranty/internal/domain"
	"ewarranty/internal/infra"
	"ewarranty/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EmailQueue is satisfied by *Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, p EmailPayload) error
}

type CertificateWorker struct {
	warranties  repository.WarrantyRepository
	emails      EmailQueue
	storagePath string
	companyName string
}

func NewCertificateWorker(warranties repository.WarrantyRepository, emails EmailQueue, storagePath, companyName string) *CertificateWorker {
	return &CertificateWorker{
		warranties:  warranties,
		emails:      emails,
		storagePath: storagePath,
		companyName: companyName,
	}
}

func (w *CertificateWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p CertificatePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.WarrantyID == 0 {
		log.Error().Str("payload", string(raw)).Msg("certificate_worker: invalid payload")
		return nil
	}

	warranty, err := w.warranties.FindDetail(ctx, p.WarrantyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Uint("warranty_id", p.WarrantyID).Msg("certificate_worker: warranty no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("certificate_worker: load warranty %d: %w", p.WarrantyID, err)
	}
	// Approval may have been withdrawn while the job was queued.
	if domain.ApprovalStatus(warranty.ApprovalStatus) != domain.StatusApproved {
		log.Info().Str("warranty_no", warranty.WarrantyNo).Msg("certificate_worker: warranty not approved, skipping")
		return nil
	}

	path, err := infra.GenerateWarrantyCertificatePDF(warranty, w.companyName, w.storagePath)
	if err != nil {
		return fmt.Errorf("certificate_worker: %w", err)
	}
	log.Info().Str("warranty_no", warranty.WarrantyNo).Str("path", path).Msg("certificate_worker: certificate generated")

	if warranty.ClientEmail == "" {
		return nil
	}
	return w.emails.EnqueueEmail(ctx, EmailPayload{
		To:      warranty.ClientEmail,
		Subject: fmt.Sprintf("Your warranty %s has been approved", warranty.WarrantyNo),
		Body: fmt.Sprintf("Dear %s,\n\nThe window film warranty for %s (%s) is now active. "+
			"Your certificate is attached.\n\n%s", warranty.ClientName, warranty.CarPlateNo,
			warranty.CarBrand+" "+warranty.CarModel, w.companyName),
		Attachment: path,
	})
}
