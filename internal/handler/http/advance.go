package http

import (
	"net/http"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/advance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
)

type AdvanceHandler interface {
	RecordAdvance(w http.ResponseWriter, r *http.Request)
	RecordRepayment(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	GetLedger(w http.ResponseWriter, r *http.Request)
}

type advanceHandlerImpl struct {
	advanceService advance.AdvanceService
}

func NewAdvanceHandler(advanceService advance.AdvanceService) AdvanceHandler {
	return &advanceHandlerImpl{advanceService: advanceService}
}

func (h *advanceHandlerImpl) RecordAdvance(w http.ResponseWriter, r *http.Request) {
	var req advance.RecordAdvanceRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.advanceService.RecordAdvance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Advance recorded", advance.NewAdvancePaymentResponse(created))
}

func (h *advanceHandlerImpl) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	var req advance.RecordRepaymentRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.advanceService.RecordRepayment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Repayment recorded", advance.NewAdvancePaymentResponse(created))
}

func (h *advanceHandlerImpl) transition(w http.ResponseWriter, r *http.Request, message string, fn func(id string) (advance.AdvancePayment, error)) {
	var errs validator.ValidationErrors
	id := urlUUID(r, "id", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	updated, err := fn(id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, advance.NewAdvancePaymentResponse(updated))
}

func (h *advanceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Transaction approved", func(id string) (advance.AdvancePayment, error) {
		return h.advanceService.Approve(r.Context(), id)
	})
}

func (h *advanceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Transaction rejected", func(id string) (advance.AdvancePayment, error) {
		return h.advanceService.Reject(r.Context(), id)
	})
}

func (h *advanceHandlerImpl) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Transaction completed", func(id string) (advance.AdvancePayment, error) {
		return h.advanceService.Complete(r.Context(), id)
	})
}

func (h *advanceHandlerImpl) GetLedger(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	employeeID := urlInt64(r, "employeeID", &errs)
	if err := errs.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	ledger, err := h.advanceService.GetLedger(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, advance.NewLedgerResponse(ledger))
}
