package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/vacation-admin-console/internal/models"
)

const balancesPath = "/saldos-vacaciones"

// BalanceRepository reads vacation balances and entitlements.
type BalanceRepository struct {
	api *APIClient
}

// NewBalanceRepository constructs a BalanceRepository.
func NewBalanceRepository(api *APIClient) *BalanceRepository {
	return &BalanceRepository{api: api}
}

// List returns a page of balances visible to the caller.
func (r *BalanceRepository) List(ctx context.Context, query models.ListQuery) (*models.ListResult[models.Balance], error) {
	return fetchList[models.Balance](ctx, r.api, "balances.list", balancesPath, "saldos", query)
}

// MyPeriods returns the caller's entitlement history, one entry per period.
func (r *BalanceRepository) MyPeriods(ctx context.Context) ([]models.EntitlementPeriod, error) {
	var periods []models.EntitlementPeriod
	if err := r.api.do(ctx, http.MethodGet, "balances.my_periods", balancesPath+"/mis-periodos", nil, nil, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
