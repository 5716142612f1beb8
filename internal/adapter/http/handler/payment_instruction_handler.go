package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

// InstructionIDHeader carries the id of a recorded outcome.
const InstructionIDHeader = "X-Instruction-ID"

// InstructionService is the use case surface the handler depends on.
type InstructionService interface {
	ProcessInstruction(ctx context.Context, input usecase.ProcessInstructionInput) *usecase.ProcessInstructionOutput
	GetInstruction(ctx context.Context, id string) (*domain.InstructionRecord, error)
	ListInstructions(ctx context.Context, input usecase.ListInstructionsInput) ([]*domain.InstructionRecord, error)
}

// PaymentInstructionHandler handles payment instruction HTTP requests.
type PaymentInstructionHandler struct {
	instructionUC InstructionService
}

// NewPaymentInstructionHandler creates a new PaymentInstructionHandler.
func NewPaymentInstructionHandler(instructionUC InstructionService) *PaymentInstructionHandler {
	return &PaymentInstructionHandler{instructionUC: instructionUC}
}

// Process parses, validates and executes an instruction against the
// supplied account snapshot.
func (h *PaymentInstructionHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req dto.ProcessInstructionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	out := h.instructionUC.ProcessInstruction(r.Context(), input)
	if out.RecordID != "" {
		w.Header().Set(InstructionIDHeader, out.RecordID)
	}

	writeJSON(w, statusForResult(out.Result), dto.InstructionFromResult(out.Result))
}

// Get retrieves a recorded outcome by ID.
func (h *PaymentInstructionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing instruction ID", "")
		return
	}

	rec, err := h.instructionUC.GetInstruction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get instruction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InstructionRecordFromDomain(rec))
}

// List lists recorded outcomes, newest first.
func (h *PaymentInstructionHandler) List(w http.ResponseWriter, r *http.Request) {
	page := dto.PaginationRequest{
		Limit:  parseIntQuery(r, "limit", usecase.DefaultListLimit),
		Offset: parseIntQuery(r, "offset", 0),
	}

	records, err := h.instructionUC.ListInstructions(r.Context(), page.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list instructions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.InstructionRecordResponse]{
		Data:   dto.InstructionRecordsFromDomain(records),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}
