package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/dmitrijs2005/accessportal/internal/server/codegen"
	"github.com/dmitrijs2005/accessportal/internal/server/metrics"
	"github.com/dmitrijs2005/accessportal/internal/server/models"
	"github.com/dmitrijs2005/accessportal/internal/server/payments"
)

// StartCheckout opens a hosted checkout for a payer without active access.
func (s *AccessService) StartCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.CheckoutAllowed(ctx, email); err != nil {
		return nil, err
	}
	req.Email = email
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = common.NormalizePhone(req.Phone)

	ctx, cancel := s.withPaymentTimeout(ctx)
	defer cancel()
	cs, err := s.payments.CreateCheckout(ctx, req)
	if err != nil {
		s.log.Error(ctx, "create checkout", "email", email, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrPaymentUnverified, err)
	}
	return cs, nil
}

// CheckoutAllowed rejects a new purchase while the email has active access.
// Expired accounts may buy again; that purchase renews them.
func (s *AccessService) CheckoutAllowed(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	acct, err := s.store.FindByEmail(ctx, email)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("find account: %w", err)
	case acct.Status == models.StatusDisabled:
		return common.ErrAccountDisabled
	case acct.IsActive(s.now()):
		return common.ErrDuplicateIdentity
	}
	return nil
}

func (s *AccessService) withPaymentTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.paymentTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.paymentTimeout)
}

// verifyPayment asks the provider under a bounded timeout. Errors and
// timeouts fail closed.
func (s *AccessService) verifyPayment(ctx context.Context, ref string) (*payments.Payment, error) {
	vctx, cancel := s.withPaymentTimeout(ctx)
	defer cancel()

	pay, err := s.payments.Verify(vctx, ref)
	if err != nil {
		s.log.Warn(ctx, "payment verification failed", "payment_ref", ref, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrPaymentUnverified, err)
	}
	if !pay.Paid {
		return nil, common.ErrPaymentNotCompleted
	}
	if pay.Ref == "" {
		pay.Ref = ref
	}
	return pay, nil
}

func (s *AccessService) transactionFor(pay *payments.Payment) models.Transaction {
	currency := pay.Currency
	if currency == "" {
		currency = s.currency
	}
	return models.Transaction{
		PaymentRef: pay.Ref,
		Amount:     pay.Amount,
		Currency:   strings.ToLower(currency),
		Status:     models.TransactionPaid,
		CreatedAt:  s.now().UTC(),
	}
}

// replayed returns the confirmation for a payment reference that was
// already applied. A renewal paid after it supersedes the credential.
func (s *AccessService) replayed(ctx context.Context, ref string) (*Confirmation, error) {
	t, err := s.store.FindByPaymentRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	acct, err := s.store.FindByID(ctx, t.AccountID)
	if err != nil {
		return nil, fmt.Errorf("find account of payment %s: %w", ref, err)
	}
	return &Confirmation{
		Account:    acct,
		Superseded: acct.PaymentRef != ref && acct.LastPaymentAt.After(t.CreatedAt),
	}, nil
}

// ConfirmPayment turns a paid checkout into access. It is idempotent per
// payment reference: replays return the account the payment was applied to
// without issuing a credential or notifying again.
func (s *AccessService) ConfirmPayment(ctx context.Context, paymentRef string) (*Confirmation, error) {
	c, err := s.confirmPayment(ctx, paymentRef)
	metrics.RecordConfirmation(confirmationOutcome(c, err))
	return c, err
}

func confirmationOutcome(c *Confirmation, err error) string {
	switch {
	case err == nil && c.IsNewCredential:
		return "issued"
	case err == nil && c.Superseded:
		return "superseded"
	case err == nil:
		return "idempotent"
	case errors.Is(err, common.ErrPaymentNotCompleted):
		return "not_paid"
	case errors.Is(err, common.ErrPaymentUnverified):
		return "unverified"
	case errors.Is(err, common.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, common.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func (s *AccessService) confirmPayment(ctx context.Context, paymentRef string) (*Confirmation, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, fmt.Errorf("%w: session id", common.ErrInvalidInput)
	}

	pay, err := s.verifyPayment(ctx, paymentRef)
	if err != nil {
		return nil, err
	}

	prev, err := s.replayed(ctx, pay.Ref)
	switch {
	case err == nil:
		return prev, nil
	case !isNotFound(err):
		return nil, fmt.Errorf("find payment: %w", err)
	}

	email, err := normalizeEmail(pay.Email)
	if err != nil {
		s.log.Error(ctx, "paid checkout without usable email", "payment_ref", pay.Ref)
		return nil, err
	}

	acct, err := s.store.FindByEmail(ctx, email)
	switch {
	case isNotFound(err):
		return s.provision(ctx, email, pay)
	case err != nil:
		return nil, fmt.Errorf("find account: %w", err)
	}
	return s.apply(ctx, acct, pay)
}

// apply handles a new payment for an existing account.
func (s *AccessService) apply(ctx context.Context, acct *models.Account, pay *payments.Payment) (*Confirmation, error) {
	switch {
	case acct.Status == models.StatusDisabled:
		return nil, common.ErrAccountDisabled
	case acct.IsActive(s.now()):
		tx := s.transactionFor(pay)
		tx.AccountID = acct.ID
		err := s.store.RecordTransaction(ctx, tx)
		if err != nil && !errors.Is(err, common.ErrDuplicatePayment) {
			return nil, s.fail(ctx, "record_transaction", acct.Email, err)
		}
		s.log.Info(ctx, "payment for active account", "account_id", acct.ID, "payment_ref", pay.Ref)
		return &Confirmation{Account: acct}, nil
	default:
		return s.renew(ctx, acct, pay, models.RenewIfLapsed)
	}
}

// provision creates the account for a first payment. A lost race on the
// email or payment reference resolves to the winner's account.
func (s *AccessService) provision(ctx context.Context, email string, pay *payments.Payment) (*Confirmation, error) {
	now := s.now().UTC()
	for i := 0; i < codegen.MaxAttempts; i++ {
		code, err := s.nextCode(ctx)
		if err != nil {
			return nil, err
		}

		acct, err := s.store.Create(ctx, models.NewAccount{
			Email:      email,
			Name:       strings.TrimSpace(pay.Name),
			Phone:      common.NormalizePhone(pay.Phone),
			Credential: code,
			PaymentRef: pay.Ref,
			PaidAt:     now,
			ExpiresAt:  now.Add(s.validity),
		}, s.transactionFor(pay))

		switch {
		case err == nil:
			s.log.Info(ctx, "account created", "account_id", acct.ID, "email", email)
			s.recordActivity(ctx, acct.ID, models.ActionRegister, "payment "+pay.Ref, "")
			s.notifier.SendWelcome(ctx, acct)
			return &Confirmation{Account: acct, IsNewCredential: true}, nil
		case errors.Is(err, common.ErrCredentialCollision):
			continue
		case errors.Is(err, common.ErrDuplicatePayment):
			prev, err := s.replayed(ctx, pay.Ref)
			if err != nil {
				return nil, fmt.Errorf("resolve payment race: %w", err)
			}
			return prev, nil
		case errors.Is(err, common.ErrDuplicateIdentity):
			winner, err := s.store.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("resolve account race: %w", err)
			}
			return s.apply(ctx, winner, pay)
		default:
			return nil, s.fail(ctx, "create_account", email, err)
		}
	}
	return nil, common.ErrCodeSpaceExhausted
}

// renew extends access with a fresh credential. With RenewIfLapsed a
// renewal that another payment already served under the row lock only
// records this payment.
func (s *AccessService) renew(ctx context.Context, acct *models.Account, pay *payments.Payment, mode models.RenewMode) (*Confirmation, error) {
	for i := 0; i < codegen.MaxAttempts; i++ {
		code, err := s.nextCode(ctx)
		if err != nil {
			return nil, err
		}

		renewed, err := s.store.Renew(ctx, acct.ID, code, s.transactionFor(pay), mode, s.validity, s.now().UTC())
		switch {
		case err == nil && renewed.Credential != code:
			s.log.Info(ctx, "payment for active account", "account_id", renewed.ID, "payment_ref", pay.Ref)
			return &Confirmation{Account: renewed}, nil
		case err == nil:
			s.log.Info(ctx, "account renewed", "account_id", renewed.ID, "expires_at", renewed.ExpiresAt)
			s.recordActivity(ctx, renewed.ID, models.ActionRenew, "payment "+pay.Ref, "")
			s.notifier.SendRenewalConfirmation(ctx, renewed)
			return &Confirmation{Account: renewed, IsNewCredential: true}, nil
		case errors.Is(err, common.ErrCredentialCollision):
			continue
		case errors.Is(err, common.ErrDuplicatePayment):
			prev, err := s.replayed(ctx, pay.Ref)
			if err != nil {
				return nil, fmt.Errorf("resolve payment race: %w", err)
			}
			return prev, nil
		case errors.Is(err, common.ErrAccountDisabled):
			return nil, err
		default:
			return nil, s.fail(ctx, "renew_account", acct.Email, err)
		}
	}
	return nil, common.ErrCodeSpaceExhausted
}

// RenewAccess applies a paid checkout to the named account, extending
// access whether or not it has expired yet.
func (s *AccessService) RenewAccess(ctx context.Context, email, paymentRef string) (*Confirmation, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, fmt.Errorf("%w: session id", common.ErrInvalidInput)
	}

	pay, err := s.verifyPayment(ctx, paymentRef)
	if err != nil {
		return nil, err
	}
	if paid := common.NormalizeEmail(pay.Email); paid != "" && paid != email {
		return nil, fmt.Errorf("%w: payment belongs to another email", common.ErrInvalidInput)
	}

	prev, err := s.replayed(ctx, pay.Ref)
	switch {
	case err == nil:
		if prev.Account.Email != email {
			return nil, fmt.Errorf("%w: payment belongs to another account", common.ErrInvalidInput)
		}
		return prev, nil
	case !isNotFound(err):
		return nil, fmt.Errorf("find payment: %w", err)
	}

	acct, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct.Status == models.StatusDisabled {
		return nil, common.ErrAccountDisabled
	}
	return s.renew(ctx, acct, pay, models.RenewExtend)
}
