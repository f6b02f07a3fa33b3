package auction

import (
	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/entity"
)

// CanBid allows buyers to bid on gigs they do not own.
func CanBid(caller auth.Identity, gig *entity.Gig) bool {
	return caller.Role == entity.RoleBuyer && caller.UserID != gig.SellerID
}

// CanSettle allows the owning seller or any administrator.
func CanSettle(caller auth.Identity, order *entity.Order) bool {
	if caller.Role == entity.RoleAdministrator {
		return true
	}
	return caller.Role == entity.RoleSeller && caller.UserID == order.SellerID
}

// CanViewOrder allows both parties of the order and administrators.
func CanViewOrder(caller auth.Identity, order *entity.Order) bool {
	return caller.UserID == order.BuyerID ||
		caller.UserID == order.SellerID ||
		caller.Role == entity.RoleAdministrator
}
