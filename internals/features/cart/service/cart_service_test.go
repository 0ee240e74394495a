package service

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"examstore_backend/internals/constants"
	"examstore_backend/internals/features/cart/dto"
	"examstore_backend/internals/features/cart/model"
	productModel "examstore_backend/internals/features/catalog/products/model"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
	usersModel "examstore_backend/internals/features/users/model"
	vatDto "examstore_backend/internals/features/vat/dto"
	vatModel "examstore_backend/internals/features/vat/model"
	vatService "examstore_backend/internals/features/vat/service"
)

func newCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cart.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usersModel.User{},
		&usersModel.UserAddress{},
		&productModel.Subject{},
		&productModel.ExamSession{},
		&productModel.ExamSessionSubject{},
		&productModel.CatalogProduct{},
		&productModel.ProductVariation{},
		&productModel.ProductProductVariation{},
		&productModel.StoreProduct{},
		&productModel.Price{},
		&voucherModel.MarkingVoucher{},
		&model.Cart{},
		&model.CartItem{},
		&vatModel.VATAudit{},
	))
	return db
}

func newTestCartService(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db := newCartTestDB(t)
	vat := vatService.NewVATOrchestrator(db, vatService.NewRulesEngine())
	return NewCartService(db, vat), db
}

// seedStoreProduct creates a full ESS/PPV chain with one standard price.
func seedStoreProduct(t *testing.T, db *gorm.DB, active bool, price string) *productModel.StoreProduct {
	t.Helper()

	subject := productModel.Subject{SubjectCode: "CB1", SubjectDescription: "Business Finance", SubjectActive: true}
	require.NoError(t, db.Create(&subject).Error)
	session := productModel.ExamSession{ExamSessionCode: "2025A"}
	require.NoError(t, db.Create(&session).Error)
	ess := productModel.ExamSessionSubject{ESSExamSessionID: session.ExamSessionID, ESSSubjectID: subject.SubjectID}
	require.NoError(t, db.Create(&ess).Error)

	catalog := productModel.CatalogProduct{
		CatalogProductCode:      "CMP",
		CatalogProductFullname:  "Combined Materials Pack",
		CatalogProductShortname: "CMP",
		CatalogProductIsActive:  true,
	}
	require.NoError(t, db.Create(&catalog).Error)
	variation := productModel.ProductVariation{VariationType: constants.VariationEBook, VariationName: "eBook"}
	require.NoError(t, db.Create(&variation).Error)
	ppv := productModel.ProductProductVariation{PPVCatalogProductID: catalog.CatalogProductID, PPVVariationID: variation.VariationID}
	require.NoError(t, db.Create(&ppv).Error)

	sp := productModel.StoreProduct{
		StoreProductESSID:    ess.ESSID,
		StoreProductPPVID:    ppv.PPVID,
		StoreProductCode:     "CB1/CCMP/2025A",
		StoreProductIsActive: active,
	}
	require.NoError(t, db.Create(&sp).Error)
	require.NoError(t, db.Create(&productModel.Price{
		PriceStoreProductID: sp.StoreProductID,
		PriceType:           constants.PriceStandard,
		PriceAmount:         decimal.RequireFromString(price),
	}).Error)
	return &sp
}

func TestGetOrCreateReusesUserCart(t *testing.T) {
	svc, db := newTestCartService(t)

	user := usersModel.User{UserEmail: "student@example.com", UserPassword: "x"}
	require.NoError(t, db.Create(&user).Error)

	first, err := svc.GetOrCreate(&user.UserID)
	require.NoError(t, err)
	second, err := svc.GetOrCreate(&user.UserID)
	require.NoError(t, err)
	assert.Equal(t, first.CartID, second.CartID)

	anon, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	assert.Nil(t, anon.CartUserID)
	assert.NotEqual(t, first.CartID, anon.CartID)
}

func TestAddItemSnapshotsPriceAndRecomputesVAT(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, true, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)

	item, err := svc.AddItem(cart, &dto.AddItemRequest{StoreProductID: sp.StoreProductID.String()})
	require.NoError(t, err)
	assert.Equal(t, "100.00", item.CartItemActualPrice.StringFixed(2))
	assert.Equal(t, 1, item.CartItemQuantity)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(item.CartItemMetadata, &meta))
	assert.Equal(t, constants.PriceStandard, meta["priceType"])
	assert.Equal(t, constants.VariationEBook, meta["variationType"])

	// Anonymous carts tax as UK; a digital line at 100.00 carries 20.00.
	var stored model.Cart
	require.NoError(t, db.First(&stored, "cart_id = ?", cart.CartID).Error)
	require.NotNil(t, stored.CartVATResult)
	var doc vatDto.VATResult
	require.NoError(t, json.Unmarshal(stored.CartVATResult, &doc))
	assert.Equal(t, "UK", doc.Region)
	assert.Equal(t, "100.00", doc.Totals.Net)
	assert.Equal(t, "20.00", doc.Totals.VAT)
	assert.Equal(t, "120.00", doc.Totals.Gross)
}

func TestAddItemPriceSnapshotIgnoresLaterRevisions(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, true, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	item, err := svc.AddItem(cart, &dto.AddItemRequest{StoreProductID: sp.StoreProductID.String()})
	require.NoError(t, err)

	require.NoError(t, db.Model(&productModel.Price{}).
		Where("price_store_product_id = ?", sp.StoreProductID).
		Update("price_amount", decimal.RequireFromString("140.00")).Error)

	var stored model.CartItem
	require.NoError(t, db.First(&stored, "cart_item_id = ?", item.CartItemID).Error)
	assert.Equal(t, "100.00", stored.CartItemActualPrice.StringFixed(2))
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, false, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	_, err = svc.AddItem(cart, &dto.AddItemRequest{StoreProductID: sp.StoreProductID.String()})
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestStoreProductInactiveFlagPersists(t *testing.T) {
	_, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, false, "100.00")

	// A false flag must survive the insert rather than being dropped as
	// a zero value and replaced by a column default.
	var stored productModel.StoreProduct
	require.NoError(t, db.First(&stored, "store_product_id = ?", sp.StoreProductID).Error)
	assert.False(t, stored.StoreProductIsActive)
}

func TestAddItemMissingPriceBand(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, true, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	_, err = svc.AddItem(cart, &dto.AddItemRequest{
		StoreProductID: sp.StoreProductID.String(),
		PriceType:      constants.PriceRetaker,
	})
	assert.ErrorIs(t, err, ErrPriceMissing)
}

func TestAddItemVoucher(t *testing.T) {
	svc, db := newTestCartService(t)

	voucher := voucherModel.MarkingVoucher{
		VoucherCode:     "MV-STD",
		VoucherName:     "Marking Voucher",
		VoucherPrice:    decimal.RequireFromString("35.00"),
		VoucherIsActive: true,
	}
	require.NoError(t, db.Create(&voucher).Error)

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	item, err := svc.AddItem(cart, &dto.AddItemRequest{VoucherID: voucher.VoucherID.String(), Quantity: 2})
	require.NoError(t, err)
	require.NotNil(t, item.CartItemVoucherID)
	assert.Equal(t, voucher.VoucherID, *item.CartItemVoucherID)
	assert.Equal(t, "35.00", item.CartItemActualPrice.StringFixed(2))
	assert.Equal(t, 2, item.CartItemQuantity)
}

func TestAddItemExpiredVoucher(t *testing.T) {
	svc, db := newTestCartService(t)

	expired := time.Now().UTC().AddDate(0, 0, -2)
	voucher := voucherModel.MarkingVoucher{
		VoucherCode:       "MV-OLD",
		VoucherName:       "Marking Voucher",
		VoucherPrice:      decimal.RequireFromString("35.00"),
		VoucherIsActive:   true,
		VoucherExpiryDate: &expired,
	}
	require.NoError(t, db.Create(&voucher).Error)

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	_, err = svc.AddItem(cart, &dto.AddItemRequest{VoucherID: voucher.VoucherID.String()})
	assert.ErrorIs(t, err, ErrVoucherExpired)
}

func TestAddItemWithoutReference(t *testing.T) {
	svc, _ := newTestCartService(t)
	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	_, err = svc.AddItem(cart, &dto.AddItemRequest{})
	assert.ErrorIs(t, err, model.ErrCartItemReference)
}

func TestUpdateItemZeroRemovesAndClearsVAT(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, true, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	item, err := svc.AddItem(cart, &dto.AddItemRequest{StoreProductID: sp.StoreProductID.String()})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateItem(cart, item.CartItemID, 3))
	var stored model.CartItem
	require.NoError(t, db.First(&stored, "cart_item_id = ?", item.CartItemID).Error)
	assert.Equal(t, 3, stored.CartItemQuantity)

	require.NoError(t, svc.UpdateItem(cart, item.CartItemID, 0))
	err = db.First(&stored, "cart_item_id = ?", item.CartItemID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Empty cart never serves a stale snapshot.
	var reloaded model.Cart
	require.NoError(t, db.First(&reloaded, "cart_id = ?", cart.CartID).Error)
	assert.Empty(t, reloaded.CartVATResult)
}

func TestUpdateItemNotFound(t *testing.T) {
	svc, _ := newTestCartService(t)
	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	err = svc.UpdateItem(cart, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, db := newTestCartService(t)
	sp := seedStoreProduct(t, db, true, "100.00")

	cart, err := svc.GetOrCreate(nil)
	require.NoError(t, err)
	item, err := svc.AddItem(cart, &dto.AddItemRequest{StoreProductID: sp.StoreProductID.String()})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(cart, item.CartItemID))
	assert.ErrorIs(t, svc.RemoveItem(cart, item.CartItemID), ErrItemNotFound)

	var count int64
	require.NoError(t, db.Model(&model.CartItem{}).Count(&count).Error)
	assert.Zero(t, count)
}
