package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/vacation-admin-console/internal/models"
)

const (
	requestsPath     = "/solicitudes-vacaciones"
	requestsItemsKey = "solicitudes"
)

// VacationRequestRepository reads and mutates vacation requests through the API.
type VacationRequestRepository struct {
	api *APIClient
}

// NewVacationRequestRepository constructs a VacationRequestRepository.
func NewVacationRequestRepository(api *APIClient) *VacationRequestRepository {
	return &VacationRequestRepository{api: api}
}

// ListTeam returns requests of the caller's subordinates.
func (r *VacationRequestRepository) ListTeam(ctx context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error) {
	return fetchList[models.VacationRequest](ctx, r.api, "requests.team", requestsPath+"/equipo", requestsItemsKey, query)
}

// ListMine returns the caller's own requests.
func (r *VacationRequestRepository) ListMine(ctx context.Context, query models.ListQuery) (*models.ListResult[models.VacationRequest], error) {
	return fetchList[models.VacationRequest](ctx, r.api, "requests.mine", requestsPath+"/mis-solicitudes", requestsItemsKey, query)
}

// Create submits a new vacation request.
func (r *VacationRequestRepository) Create(ctx context.Context, payload models.CreateVacationRequest) (*models.ActionResult, error) {
	var result models.ActionResult
	if err := r.api.do(ctx, http.MethodPost, "requests.create", requestsPath, nil, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Approve approves a pending request.
func (r *VacationRequestRepository) Approve(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	return r.decide(ctx, "requests.approve", id, "aprobar", decision)
}

// Reject rejects a pending request.
func (r *VacationRequestRepository) Reject(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	return r.decide(ctx, "requests.reject", id, "rechazar", decision)
}

// Cancel withdraws one of the caller's requests.
func (r *VacationRequestRepository) Cancel(ctx context.Context, id int64, decision models.DecisionRequest) (*models.ActionResult, error) {
	return r.decide(ctx, "requests.cancel", id, "cancelar", decision)
}

func (r *VacationRequestRepository) decide(ctx context.Context, endpoint string, id int64, verb string, decision models.DecisionRequest) (*models.ActionResult, error) {
	var result models.ActionResult
	path := fmt.Sprintf("%s/%d/%s", requestsPath, id, verb)
	if err := r.api.do(ctx, http.MethodPost, endpoint, path, nil, decision, &result); err != nil {
		return nil, err
	}
	if result.RequestID == 0 {
		result.RequestID = id
	}
	return &result, nil
}
