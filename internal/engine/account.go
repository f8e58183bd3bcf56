/**
 * @description
 * The My Account selection: a terminal summary of the user's settlement
 * account details and balance. No scratch state, no provider call.
 */
package engine

import (
	"fmt"

	"github.com/iyapays/ussd-gateway/internal/domain"
)

func (e *Engine) handleAccount(user *domain.User) Response {
	return End(fmt.Sprintf("Your Account Details:\nName: %s\nNumber: %s\nBalance: NGN %.2f",
		user.AccountName, user.AccountNumber, user.AccountBalance))
}
