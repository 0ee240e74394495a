package service

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"examstore_backend/internals/constants"
	bundleModel "examstore_backend/internals/features/catalog/bundles/model"
	filterModel "examstore_backend/internals/features/catalog/filters/model"
	filterService "examstore_backend/internals/features/catalog/filters/service"
	productModel "examstore_backend/internals/features/catalog/products/model"
	"examstore_backend/internals/features/catalog/search/dto"
	voucherModel "examstore_backend/internals/features/catalog/vouchers/model"
)

type searchFixture struct {
	db  *gorm.DB
	svc *SearchService

	cb1CMP  productModel.StoreProduct
	cb1Mock productModel.StoreProduct
	cm2CMP  productModel.StoreProduct
	bundle  bundleModel.Bundle
	voucher voucherModel.MarkingVoucher
}

// newSearchFixture seeds a small but fully-linked catalog: two
// subjects, one session, a materials pack and a mock exam, one bundle
// on CB1 and one marking voucher.
func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "search.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&productModel.Subject{},
		&productModel.ExamSession{},
		&productModel.ExamSessionSubject{},
		&productModel.CatalogProduct{},
		&productModel.CatalogProductGroup{},
		&productModel.ProductVariation{},
		&productModel.ProductProductVariation{},
		&productModel.ProductRecommendation{},
		&productModel.StoreProduct{},
		&productModel.Price{},
		&productModel.TutorialEvent{},
		&filterModel.FilterGroup{},
		&filterModel.FilterConfiguration{},
		&filterModel.FilterConfigurationGroup{},
		&bundleModel.BundleTemplate{},
		&bundleModel.Bundle{},
		&bundleModel.BundleProduct{},
		&voucherModel.MarkingVoucher{},
	))

	f := &searchFixture{db: db}

	cb1 := productModel.Subject{SubjectCode: "CB1", SubjectDescription: "Business Finance", SubjectActive: true}
	cm2 := productModel.Subject{SubjectCode: "CM2", SubjectDescription: "Financial Engineering", SubjectActive: true}
	require.NoError(t, db.Create(&cb1).Error)
	require.NoError(t, db.Create(&cm2).Error)

	session := productModel.ExamSession{ExamSessionCode: "2025A"}
	require.NoError(t, db.Create(&session).Error)

	essCB1 := productModel.ExamSessionSubject{ESSExamSessionID: session.ExamSessionID, ESSSubjectID: cb1.SubjectID}
	essCM2 := productModel.ExamSessionSubject{ESSExamSessionID: session.ExamSessionID, ESSSubjectID: cm2.SubjectID}
	require.NoError(t, db.Create(&essCB1).Error)
	require.NoError(t, db.Create(&essCM2).Error)

	material := filterModel.FilterGroup{FilterGroupName: "Material", FilterGroupCode: "1", FilterGroupIsActive: true}
	require.NoError(t, db.Create(&material).Error)
	coreStudy := filterModel.FilterGroup{FilterGroupName: "Core Study Materials", FilterGroupParentID: &material.FilterGroupID, FilterGroupIsActive: true}
	revision := filterModel.FilterGroup{FilterGroupName: "Revision", FilterGroupCode: "3", FilterGroupIsActive: true}
	marking := filterModel.FilterGroup{FilterGroupName: "Marking", FilterGroupCode: "8", FilterGroupIsActive: true}
	require.NoError(t, db.Create(&coreStudy).Error)
	require.NoError(t, db.Create(&revision).Error)
	require.NoError(t, db.Create(&marking).Error)

	categories := filterModel.FilterConfiguration{FilterConfigName: "Categories", FilterConfigKey: dto.FilterCategories, FilterConfigDisplayOrder: 1, FilterConfigIsActive: true}
	productTypes := filterModel.FilterConfiguration{FilterConfigName: "Product Types", FilterConfigKey: dto.FilterProductTypes, FilterConfigDisplayOrder: 2, FilterConfigIsActive: true}
	require.NoError(t, db.Create(&categories).Error)
	require.NoError(t, db.Create(&productTypes).Error)
	for i, gid := range []struct {
		cfg   filterModel.FilterConfiguration
		group filterModel.FilterGroup
	}{
		{categories, material}, {categories, revision}, {categories, marking},
		{productTypes, coreStudy},
	} {
		require.NoError(t, db.Create(&filterModel.FilterConfigurationGroup{
			FCGConfigID:      gid.cfg.FilterConfigID,
			FCGFilterGroupID: gid.group.FilterGroupID,
			FCGDisplayOrder:  i,
		}).Error)
	}

	cmp := productModel.CatalogProduct{CatalogProductCode: "CMP", CatalogProductFullname: "Combined Materials Pack", CatalogProductShortname: "CMP", CatalogProductIsActive: true}
	mock := productModel.CatalogProduct{CatalogProductCode: "MOCK", CatalogProductFullname: "Mock Exam Pack", CatalogProductShortname: "Mock Exam", CatalogProductIsActive: true}
	require.NoError(t, db.Create(&cmp).Error)
	require.NoError(t, db.Create(&mock).Error)
	require.NoError(t, db.Create(&productModel.CatalogProductGroup{CPGCatalogProductID: cmp.CatalogProductID, CPGFilterGroupID: coreStudy.FilterGroupID}).Error)
	require.NoError(t, db.Create(&productModel.CatalogProductGroup{CPGCatalogProductID: mock.CatalogProductID, CPGFilterGroupID: revision.FilterGroupID}).Error)

	eBook := productModel.ProductVariation{VariationType: constants.VariationEBook, VariationName: "eBook"}
	printed := productModel.ProductVariation{VariationType: constants.VariationPrinted, VariationName: "Printed"}
	require.NoError(t, db.Create(&eBook).Error)
	require.NoError(t, db.Create(&printed).Error)

	cmpEBook := productModel.ProductProductVariation{PPVCatalogProductID: cmp.CatalogProductID, PPVVariationID: eBook.VariationID}
	cmpPrinted := productModel.ProductProductVariation{PPVCatalogProductID: cmp.CatalogProductID, PPVVariationID: printed.VariationID}
	mockEBook := productModel.ProductProductVariation{PPVCatalogProductID: mock.CatalogProductID, PPVVariationID: eBook.VariationID}
	require.NoError(t, db.Create(&cmpEBook).Error)
	require.NoError(t, db.Create(&cmpPrinted).Error)
	require.NoError(t, db.Create(&mockEBook).Error)

	f.cb1CMP = productModel.StoreProduct{StoreProductESSID: essCB1.ESSID, StoreProductPPVID: cmpEBook.PPVID, StoreProductCode: "CB1/CCMP/2025A", StoreProductIsActive: true}
	f.cb1Mock = productModel.StoreProduct{StoreProductESSID: essCB1.ESSID, StoreProductPPVID: mockEBook.PPVID, StoreProductCode: "CB1/BMOCK/2025A", StoreProductIsActive: true}
	f.cm2CMP = productModel.StoreProduct{StoreProductESSID: essCM2.ESSID, StoreProductPPVID: cmpEBook.PPVID, StoreProductCode: "CM2/CCMP/2025A", StoreProductIsActive: true}
	retired := productModel.StoreProduct{StoreProductESSID: essCB1.ESSID, StoreProductPPVID: cmpPrinted.PPVID, StoreProductCode: "CB1/PCMP/2025A", StoreProductIsActive: false}
	require.NoError(t, db.Create(&f.cb1CMP).Error)
	require.NoError(t, db.Create(&f.cb1Mock).Error)
	require.NoError(t, db.Create(&f.cm2CMP).Error)
	require.NoError(t, db.Create(&retired).Error)

	require.NoError(t, db.Create(&productModel.Price{
		PriceStoreProductID: f.cb1CMP.StoreProductID,
		PriceType:           constants.PriceStandard,
		PriceAmount:         decimal.RequireFromString("100.00"),
		PriceCurrency:       "GBP",
	}).Error)

	tpl := bundleModel.BundleTemplate{BundleTemplateName: "Materials & Revision Bundle"}
	require.NoError(t, db.Create(&tpl).Error)
	f.bundle = bundleModel.Bundle{BundleTemplateID: tpl.BundleTemplateID, BundleESSID: essCB1.ESSID, BundleIsActive: true}
	require.NoError(t, db.Create(&f.bundle).Error)
	require.NoError(t, db.Create(&bundleModel.BundleProduct{
		BPBundleID:       f.bundle.BundleID,
		BPStoreProductID: f.cb1CMP.StoreProductID,
		BPIsActive:       true,
	}).Error)

	f.voucher = voucherModel.MarkingVoucher{VoucherCode: "MV-STD", VoucherName: "Marking Voucher", VoucherPrice: decimal.RequireFromString("35.00"), VoucherIsActive: true}
	require.NoError(t, db.Create(&f.voucher).Error)

	registry := filterService.NewFilterRegistry()
	require.NoError(t, registry.Refresh(db))

	f.svc = NewSearchService(db, registry)
	return f
}

func itemCodes(items []dto.SearchItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsBundle || it.ItemType == constants.ItemTypeVoucher {
			out = append(out, it.Shortname)
			continue
		}
		out = append(out, it.Code)
	}
	return out
}

func TestSearchBrowseOrdering(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Error)

	// Subjects ascend, the bundle leads its CB1 stratum, the inactive
	// printed SKU never appears and no voucher shows without marking
	// intent.
	assert.Equal(t, []string{
		"Materials & Revision Bundle",
		"CB1/CCMP/2025A",
		"CB1/BMOCK/2025A",
		"CM2/CCMP/2025A",
	}, itemCodes(resp.Products))
	assert.Equal(t, int64(4), resp.Pagination.TotalCount)
}

func TestSearchBrowseFacetCounts(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{})
	require.NoError(t, err)

	subjects := resp.FilterCounts[dto.FilterSubjects]
	assert.Equal(t, 2, subjects["CB1"].Count)
	assert.Equal(t, 1, subjects["CM2"].Count)
	assert.NotEmpty(t, subjects["CB1"].ID)

	categories := resp.FilterCounts[dto.FilterCategories]
	// Material rolls its Core Study Materials child up.
	assert.Equal(t, 2, categories["Material"].Count)
	assert.Equal(t, 1, categories["Revision"].Count)
	// Zero-count values are retained for the UI.
	assert.Equal(t, 0, categories["Marking"].Count)
	assert.Equal(t, 1, categories["Bundle"].Count)

	productTypes := resp.FilterCounts[dto.FilterProductTypes]
	assert.Equal(t, 2, productTypes["Core Study Materials"].Count)

	modes := resp.FilterCounts[dto.FilterModesOfDelivery]
	assert.Equal(t, 3, modes["eBook"].Count)
}

func TestSearchSubjectFilter(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{dto.FilterSubjects: {"CM2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CM2/CCMP/2025A"}, itemCodes(resp.Products))

	// Disjunctive counting: the subject dimension ignores its own
	// applied filter, so CB1 stays selectable with its full count.
	subjects := resp.FilterCounts[dto.FilterSubjects]
	assert.Equal(t, 2, subjects["CB1"].Count)
	assert.Equal(t, 1, subjects["CM2"].Count)

	// The CB1 bundle drops out under the CM2 subject filter.
	assert.Equal(t, 0, resp.FilterCounts[dto.FilterCategories]["Bundle"].Count)
}

func TestSearchCategoryFilterKeepsContainingBundle(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{dto.FilterCategories: {"Material"}},
	})
	require.NoError(t, err)

	// CMP products match the category; the bundle survives because it
	// contains one of them.
	assert.Equal(t, []string{
		"Materials & Revision Bundle",
		"CB1/CCMP/2025A",
		"CM2/CCMP/2025A",
	}, itemCodes(resp.Products))
}

func TestSearchRevisionFilterExcludesBundle(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{dto.FilterCategories: {"Revision"}},
	})
	require.NoError(t, err)

	// The mock exam matches but the bundle contains no surviving
	// product, so it is excluded.
	assert.Equal(t, []string{"CB1/BMOCK/2025A"}, itemCodes(resp.Products))

	// The Bundle facet still counts disjunctively: with the category
	// dimension lifted, the CB1 bundle is one click away.
	assert.Equal(t, 1, resp.FilterCounts[dto.FilterCategories]["Bundle"].Count)
}

func TestSearchBundleCategoryExclusive(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{dto.FilterCategories: {"Bundle"}},
	})
	require.NoError(t, err)

	// Products are suppressed entirely; only bundles come back.
	require.Len(t, resp.Products, 1)
	assert.True(t, resp.Products[0].IsBundle)
	assert.Equal(t, constants.ItemTypeBundle, resp.Products[0].ItemType)
}

func TestSearchFuzzySubjectCode(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{SearchQuery: "cm2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"CM2/CCMP/2025A"}, itemCodes(resp.Products))
}

func TestSearchBundleKeyword(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{SearchQuery: "bundle"})
	require.NoError(t, err)

	// The keyword forces bundles in even though no product matches the
	// query.
	require.Len(t, resp.Products, 1)
	assert.True(t, resp.Products[0].IsBundle)
	assert.Equal(t, "Materials & Revision Bundle", resp.Products[0].Shortname)
}

func TestSearchMarkingNavbarGroupInjectsVouchers(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		NavbarFilters: map[string]string{dto.NavbarGroup: "8"},
	})
	require.NoError(t, err)

	// Nothing carries the Marking tag, so only the voucher comes back.
	require.Len(t, resp.Products, 1)
	assert.Equal(t, constants.ItemTypeVoucher, resp.Products[0].ItemType)
	assert.Equal(t, "Marking Voucher", resp.Products[0].Shortname)
	require.Len(t, resp.Products[0].Variations, 1)
	require.Len(t, resp.Products[0].Variations[0].Prices, 1)
	assert.Equal(t, "35.00", resp.Products[0].Variations[0].Prices[0].Amount)
}

func TestSearchExcludeBundlesOption(t *testing.T) {
	f := newSearchFixture(t)

	off := false
	resp, err := f.svc.Search(&dto.SearchRequest{
		Options: &dto.SearchOptions{IncludeBundles: &off},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CB1/CCMP/2025A",
		"CB1/BMOCK/2025A",
		"CM2/CCMP/2025A",
	}, itemCodes(resp.Products))
}

func TestSearchPagination(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Pagination: &dto.PaginationRequest{Page: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, int64(4), resp.Pagination.TotalCount)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)

	resp, err = f.svc.Search(&dto.SearchRequest{
		Pagination: &dto.PaginationRequest{Page: 9, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Products)
	assert.Equal(t, int64(4), resp.Pagination.TotalCount)

	// Page 0 yields an empty page, not page 1.
	resp, err = f.svc.Search(&dto.SearchRequest{
		Pagination: &dto.PaginationRequest{Page: 0, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Products)
	assert.Equal(t, int64(4), resp.Pagination.TotalCount)
	assert.False(t, resp.Pagination.HasNext)
}

func TestInvalidateCacheDropsStalePages(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{})
	require.NoError(t, err)
	first := resp.Pagination.TotalCount

	require.NoError(t, f.db.Model(&productModel.StoreProduct{}).
		Where("store_product_id = ?", f.cb1Mock.StoreProductID).
		Update("store_product_is_active", false).Error)

	// Identical request: the cached page still shows the old catalog.
	resp, err = f.svc.Search(&dto.SearchRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Performance.Cached)
	assert.Equal(t, first, resp.Pagination.TotalCount)

	f.svc.InvalidateCache()
	resp, err = f.svc.Search(&dto.SearchRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Performance.Cached)
	assert.Equal(t, first-1, resp.Pagination.TotalCount)
}

func TestSearchUnknownDimensionRejected(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{"vibe": {"good"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter dimension")
}

func TestSearchSerializesProductDetail(t *testing.T) {
	f := newSearchFixture(t)

	resp, err := f.svc.Search(&dto.SearchRequest{
		Filters: map[string][]string{dto.FilterESSPIDs: {f.cb1CMP.StoreProductID.String()}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Products, 2) // product + its containing bundle
	var item *dto.SearchItem
	for i := range resp.Products {
		if !resp.Products[i].IsBundle {
			item = &resp.Products[i]
		}
	}
	require.NotNil(t, item)
	assert.Equal(t, "CB1/CCMP/2025A", item.Code)
	assert.Equal(t, "CB1", item.SubjectCode)
	assert.Equal(t, "2025A", item.ExamSessionCode)
	assert.Equal(t, "CMP", item.Shortname)
	require.Len(t, item.Variations, 1)
	assert.Equal(t, constants.VariationEBook, item.Variations[0].Type)
	require.Len(t, item.Variations[0].Prices, 1)
	assert.Equal(t, "100.00", item.Variations[0].Prices[0].Amount)
}

func TestDefaultSearchData(t *testing.T) {
	f := newSearchFixture(t)

	data, err := f.svc.DefaultSearchData()
	require.NoError(t, err)
	assert.Contains(t, data, "subjects")
	assert.Contains(t, data, "groups")

	// Child groups carry their parent id; roots carry none.
	raw, err := json.Marshal(data["groups"])
	require.NoError(t, err)
	var groups []map[string]string
	require.NoError(t, json.Unmarshal(raw, &groups))

	byName := map[string]map[string]string{}
	for _, g := range groups {
		byName[g["name"]] = g
	}
	require.Contains(t, byName, "Material")
	require.Contains(t, byName, "Core Study Materials")
	assert.Equal(t, byName["Material"]["id"], byName["Core Study Materials"]["parent_id"])
	assert.Empty(t, byName["Material"]["parent_id"])
}
