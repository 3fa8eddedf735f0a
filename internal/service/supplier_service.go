package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Mousaahmad63636/POS-sub001/internal/dto"
	"github.com/Mousaahmad63636/POS-sub001/internal/model"
	"github.com/Mousaahmad63636/POS-sub001/internal/repository"
)

var ErrSupplierNotFound = errors.New("supplier not found")

type SupplierService interface {
	Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context) ([]dto.SupplierResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierRequest) (*dto.SupplierResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Pay records a cash payment to the supplier through the open drawer
	// session of the given register.
	Pay(ctx context.Context, id uuid.UUID, req dto.PaySupplierRequest) (*dto.SupplierPaymentResponse, error)
}

type supplierService struct {
	repo   repository.SupplierRepository
	drawer DrawerService
}

func NewSupplierService(repo repository.SupplierRepository, drawer DrawerService) SupplierService {
	return &supplierService{repo: repo, drawer: drawer}
}

func mapSupplier(s *model.Supplier) dto.SupplierResponse {
	contacts := make([]dto.SupplierContactResponse, len(s.Contacts))
	for i, c := range s.Contacts {
		contacts[i] = dto.SupplierContactResponse{
			ID:    c.ID.String(),
			Name:  c.Name,
			Phone: c.Phone,
			Email: c.Email,
		}
	}
	return dto.SupplierResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		TaxID:        s.TaxID,
		Phone:        s.Phone,
		Email:        s.Email,
		Address:      s.Address,
		PaymentTerms: s.PaymentTerms,
		Active:       s.Active,
		Contacts:     contacts,
	}
}

func (s *supplierService) Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	supplier := &model.Supplier{
		Name:         req.Name,
		TaxID:        req.TaxID,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		PaymentTerms: req.PaymentTerms,
		Active:       true,
	}
	for _, c := range req.Contacts {
		supplier.Contacts = append(supplier.Contacts, model.SupplierContact{
			Name:  c.Name,
			Phone: c.Phone,
			Email: c.Email,
		})
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	resp := mapSupplier(supplier)
	return &resp, nil
}

func (s *supplierService) GetByID(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	resp := mapSupplier(supplier)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SupplierResponse, len(suppliers))
	for i := range suppliers {
		resp[i] = mapSupplier(&suppliers[i])
	}
	return resp, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Phone != nil {
		supplier.Phone = req.Phone
	}
	if req.Email != nil {
		supplier.Email = req.Email
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.PaymentTerms != nil {
		supplier.PaymentTerms = req.PaymentTerms
	}
	if req.Active != nil {
		supplier.Active = *req.Active
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	resp := mapSupplier(supplier)
	return &resp, nil
}

func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupplierNotFound
		}
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *supplierService) Pay(ctx context.Context, id uuid.UUID, req dto.PaySupplierRequest) (*dto.SupplierPaymentResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}

	description := fmt.Sprintf("supplier payment: %s", supplier.Name)
	if req.Reference != nil && *req.Reference != "" {
		description = fmt.Sprintf("%s (%s)", description, *req.Reference)
	}

	session, err := s.drawer.RecordTransaction(ctx, dto.RecordTransactionRequest{
		RegisterID:  req.RegisterID,
		Type:        string(model.TxSupplierPayment),
		Amount:      req.Amount,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	report, err := s.drawer.GetSessionReport(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	var txID uint
	if n := len(report.Entries); n > 0 {
		txID = report.Entries[n-1].ID
	}

	return &dto.SupplierPaymentResponse{
		SupplierID:    supplier.ID.String(),
		SupplierName:  supplier.Name,
		SessionID:     session.SessionID,
		TransactionID: txID,
		Amount:        req.Amount.Abs(),
		BalanceAfter:  session.CurrentBalance,
	}, nil
}
