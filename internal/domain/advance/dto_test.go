package advance

import (
	"testing"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAdvanceRequest_ValidateMoneyPrecision(t *testing.T) {
	installment := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	cases := []struct {
		name        string
		amount      string
		returnType  string
		installment *decimal.Decimal
		wantField   string
	}{
		{name: "whole amount", amount: "500", returnType: "full"},
		{name: "cents", amount: "99.99", returnType: "installments", installment: installment("33.33")},
		{name: "sub-cent amount", amount: "0.001", returnType: "full", wantField: "amount"},
		{name: "sub-cent installment", amount: "100", returnType: "installments", installment: installment("33.333"), wantField: "installment_amount"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := RecordAdvanceRequest{
				EmployeeID:        1,
				Amount:            decimal.RequireFromString(tt.amount),
				ReturnType:        tt.returnType,
				InstallmentAmount: tt.installment,
			}
			err := req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.wantField)
		})
	}
}

func TestRecordRepaymentRequest_ValidateMoneyPrecision(t *testing.T) {
	cases := []struct {
		amount  string
		wantErr bool
	}{
		{"10", false},
		{"10.10", false},
		{"10.105", true},
	}
	for _, tt := range cases {
		t.Run(tt.amount, func(t *testing.T) {
			req := RecordRepaymentRequest{EmployeeID: 1, Amount: decimal.RequireFromString(tt.amount)}
			err := req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), "amount")
		})
	}
}
