package service

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"examstore_backend/internals/features/cart/dto"
	"examstore_backend/internals/features/cart/model"
	productModel "examstore_backend/internals/features/catalog/products/model"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
	vatService "examstore_backend/internals/features/vat/service"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductInactive = errors.New("product is not available")
	ErrVoucherExpired  = errors.New("voucher is not available")
	ErrPriceMissing    = errors.New("no price configured for the requested band")
)

// CartService owns cart mutations. Every item change recomputes the
// cart's VAT snapshot; a failed recompute clears the stale value
// rather than serving numbers for a cart that no longer exists in
// that shape.
type CartService struct {
	DB  *gorm.DB
	VAT *vatService.VATOrchestrator
}

func NewCartService(db *gorm.DB, vat *vatService.VATOrchestrator) *CartService {
	return &CartService{DB: db, VAT: vat}
}

// GetOrCreate returns the user's cart, creating one when absent.
// Anonymous carts are keyed by an explicit cart id only.
func (s *CartService) GetOrCreate(userID *uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	q := s.DB.Preload("Items").
		Preload("Items.StoreProduct").
		Preload("Items.StoreProduct.PPV").
		Preload("Items.StoreProduct.PPV.Variation").
		Preload("Items.Voucher")

	if userID != nil {
		err := q.Where("cart_user_id = ?", *userID).Order("updated_at desc").First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	cart = model.Cart{CartUserID: userID}
	if err := s.DB.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Get loads a cart by id with full item preloads.
func (s *CartService) Get(cartID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := s.DB.Preload("Items").
		Preload("Items.StoreProduct").
		Preload("Items.StoreProduct.PPV").
		Preload("Items.StoreProduct.PPV.Variation").
		Preload("Items.Voucher").
		First(&cart, "cart_id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem snapshots the current price into actual_price and triggers
// a VAT recompute. Price revisions after this point do not move the
// line.
func (s *CartService) AddItem(cart *model.Cart, req *dto.AddItemRequest) (*model.CartItem, error) {
	item := model.CartItem{
		CartItemCartID:   cart.CartID,
		CartItemQuantity: req.NormalizedQuantity(),
	}

	switch {
	case req.StoreProductID != "":
		spID, err := uuid.Parse(req.StoreProductID)
		if err != nil {
			return nil, gorm.ErrRecordNotFound
		}
		var sp productModel.StoreProduct
		if err := s.DB.Preload("Prices").Preload("PPV.Variation").
			First(&sp, "store_product_id = ?", spID).Error; err != nil {
			return nil, err
		}
		if !sp.StoreProductIsActive {
			return nil, ErrProductInactive
		}

		price, ok := priceFor(sp.Prices, req.NormalizedPriceType())
		if !ok {
			return nil, ErrPriceMissing
		}

		item.CartItemStoreProductID = &sp.StoreProductID
		item.CartItemActualPrice = price

		meta := map[string]interface{}{"priceType": req.NormalizedPriceType()}
		if sp.PPV != nil && sp.PPV.Variation != nil {
			meta["variationType"] = sp.PPV.Variation.VariationType
		}
		raw, _ := json.Marshal(meta)
		item.CartItemMetadata = datatypes.JSON(raw)

	case req.VoucherID != "":
		vID, err := uuid.Parse(req.VoucherID)
		if err != nil {
			return nil, gorm.ErrRecordNotFound
		}
		var v voucherModel.MarkingVoucher
		if err := s.DB.First(&v, "voucher_id = ?", vID).Error; err != nil {
			return nil, err
		}
		if !v.IsAvailable(nowUTC()) {
			return nil, ErrVoucherExpired
		}
		item.CartItemVoucherID = &v.VoucherID
		item.CartItemActualPrice = v.VoucherPrice

	default:
		return nil, model.ErrCartItemReference
	}

	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}

	s.recomputeVAT(cart)
	return &item, nil
}

// UpdateItem changes quantity; zero removes the line.
func (s *CartService) UpdateItem(cart *model.Cart, itemID uuid.UUID, quantity int) error {
	var item model.CartItem
	err := s.DB.First(&item, "cart_item_id = ? AND cart_item_cart_id = ?", itemID, cart.CartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}

	if quantity <= 0 {
		if err := s.DB.Delete(&item).Error; err != nil {
			return err
		}
	} else {
		if err := s.DB.Model(&item).Update("cart_item_quantity", quantity).Error; err != nil {
			return err
		}
	}

	s.recomputeVAT(cart)
	return nil
}

// RemoveItem deletes a line and recomputes.
func (s *CartService) RemoveItem(cart *model.Cart, itemID uuid.UUID) error {
	res := s.DB.Where("cart_item_id = ? AND cart_item_cart_id = ?", itemID, cart.CartID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	s.recomputeVAT(cart)
	return nil
}

// recomputeVAT reloads the cart and reruns the orchestrator. Failures
// clear the snapshot so stale totals are never shown.
func (s *CartService) recomputeVAT(cart *model.Cart) {
	fresh, err := s.Get(cart.CartID)
	if err != nil {
		log.Printf("[CART] reload for vat recompute failed: %v", err)
		return
	}
	*cart = *fresh

	if len(cart.Items) == 0 {
		if err := s.DB.Model(&model.Cart{}).
			Where("cart_id = ?", cart.CartID).
			Update("cart_vat_result", nil).Error; err != nil {
			log.Printf("[CART] clearing vat_result failed: %v", err)
		}
		cart.CartVATResult = nil
		return
	}

	if _, err := s.VAT.Calculate(cart, vatService.DefaultEntryPoint); err != nil {
		log.Printf("[CART] vat recompute failed cart=%s: %v", cart.CartID, err)
		if dbErr := s.DB.Model(&model.Cart{}).
			Where("cart_id = ?", cart.CartID).
			Update("cart_vat_result", nil).Error; dbErr != nil {
			log.Printf("[CART] clearing vat_result failed: %v", dbErr)
		}
		cart.CartVATResult = nil
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func priceFor(prices []productModel.Price, priceType string) (decimal.Decimal, bool) {
	for _, p := range prices {
		if p.PriceType == priceType {
			return p.PriceAmount, true
		}
	}
	return decimal.Decimal{}, false
}
