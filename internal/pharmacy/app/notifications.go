package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/metrics"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

const defaultPharmacyName = "Pharmacie Centrale"

// ReorderChecker is notified whenever a medication's stock changes.
type ReorderChecker interface {
	CheckAndNotify(ctx context.Context, medication domain.Medication) (bool, error)
}

// NotificationService finds medications below their reorder threshold and sends every
// supplier one consolidated email covering the categories it services.
type NotificationService struct {
	medications  ports.MedicationRepository
	categories   ports.CategoryRepository
	suppliers    ports.SupplierRepository
	mailer       ports.Mailer
	events       ports.EventBus
	metrics      *metrics.Metrics
	logger       *slog.Logger
	pharmacyName string
}

type NotificationOption func(*NotificationService)

// WithPharmacyName sets the signature used in the subject and body of reorder emails.
func WithPharmacyName(name string) NotificationOption {
	return func(s *NotificationService) {
		if name != "" {
			s.pharmacyName = name
		}
	}
}

// NewNotificationService wires required dependencies.
func NewNotificationService(
	medications ports.MedicationRepository,
	categories ports.CategoryRepository,
	suppliers ports.SupplierRepository,
	mailer ports.Mailer,
	events ports.EventBus,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	opts ...NotificationOption,
) *NotificationService {
	s := &NotificationService{
		medications:  medications,
		categories:   categories,
		suppliers:    suppliers,
		mailer:       mailer,
		events:       events,
		metrics:      metrics,
		logger:       logger,
		pharmacyName: defaultPharmacyName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndNotify runs a full sweep when the medication is available and strictly below
// its reorder threshold. It reports whether a sweep ran.
func (s *NotificationService) CheckAndNotify(ctx context.Context, medication domain.Medication) (bool, error) {
	if !medication.NeedsReorder() {
		return false, nil
	}

	s.logger.WarnContext(ctx, "medication below reorder threshold",
		"medication_id", medication.ID,
		"medication", medication.Name,
		"units_in_stock", medication.UnitsInStock,
		"reorder_threshold", medication.ReorderThreshold,
	)

	if _, err := s.CheckAllMedications(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// CheckAllMedications emails each supplier the medications it can restock, grouped by
// category, and returns the number of medications needing reorder. Mail delivery failures
// are logged and do not affect the result.
func (s *NotificationService) CheckAllMedications(ctx context.Context) (int, error) {
	s.logger.InfoContext(ctx, "checking stock of all medications")

	all, err := s.medications.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list medications: %w", err)
	}

	var flagged []domain.Medication
	for _, m := range all {
		if m.NeedsReorder() {
			flagged = append(flagged, m)
		}
	}

	s.metrics.RecordReorderSweep(ctx, len(flagged))

	if len(flagged) == 0 {
		s.logger.InfoContext(ctx, "no medication needs reordering")
		return 0, nil
	}
	s.logger.InfoContext(ctx, "medications need reordering", "count", len(flagged))

	groups, err := s.groupByCategory(ctx, flagged)
	if err != nil {
		return 0, err
	}

	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list suppliers: %w", err)
	}

	covered := make(map[int64]bool, len(groups))
	for _, supplier := range suppliers {
		var selected []reorderGroup
		for _, g := range groups {
			if supplier.Services(g.Category.Code) {
				selected = append(selected, g)
				covered[g.Category.Code] = true
			}
		}
		if len(selected) == 0 {
			continue
		}
		s.notifySupplier(ctx, supplier, selected)
	}

	for _, g := range groups {
		if !covered[g.Category.Code] {
			s.logger.WarnContext(ctx, "no supplier services category needing reorder",
				"category_code", g.Category.Code,
				"category", g.Category.Label,
				"medications", len(g.Medications),
			)
		}
	}

	return len(flagged), nil
}

// groupByCategory keeps categories in the order they are first encountered.
func (s *NotificationService) groupByCategory(ctx context.Context, flagged []domain.Medication) ([]reorderGroup, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byCode := make(map[int64]domain.Category, len(categories))
	for _, c := range categories {
		byCode[c.Code] = c
	}

	var groups []reorderGroup
	index := make(map[int64]int)
	for _, m := range flagged {
		i, ok := index[m.CategoryCode]
		if !ok {
			category, known := byCode[m.CategoryCode]
			if !known {
				category = domain.Category{Code: m.CategoryCode}
			}
			i = len(groups)
			index[m.CategoryCode] = i
			groups = append(groups, reorderGroup{Category: category})
		}
		groups[i].Medications = append(groups[i].Medications, m)
	}
	return groups, nil
}

func (s *NotificationService) notifySupplier(ctx context.Context, supplier domain.Supplier, groups []reorderGroup) {
	total := 0
	for _, g := range groups {
		total += len(g.Medications)
	}

	s.logger.InfoContext(ctx, "sending reorder summary",
		"supplier_id", supplier.ID,
		"supplier", supplier.Name,
		"email", supplier.Email,
		"medications", total,
		"categories", len(groups),
	)

	body, err := renderReorderEmail(supplier, s.pharmacyName, groups)
	if err != nil {
		s.metrics.RecordReorderEmail(ctx, false)
		s.logger.ErrorContext(ctx, "failed to render reorder email", "error", err, "supplier_id", supplier.ID)
		return
	}

	msg := ports.Message{
		To:      supplier.Email,
		ToName:  supplier.Name,
		Subject: "Demande de devis de réapprovisionnement - " + s.pharmacyName,
		HTML:    body,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.RecordReorderEmail(ctx, false)
		s.logger.WarnContext(ctx, "reorder email not delivered",
			"error", err,
			"supplier_id", supplier.ID,
			"email", supplier.Email,
		)
		return
	}
	s.metrics.RecordReorderEmail(ctx, true)

	if err := s.events.PublishReorderRequested(ctx, supplier.ID, total); err != nil {
		s.logger.WarnContext(ctx, "failed to publish reorder event", "error", err, "supplier_id", supplier.ID)
	}
}
