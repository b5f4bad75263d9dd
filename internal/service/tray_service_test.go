package service

import (
	"context"
	"testing"

	"restaurantgo/internal/model"
	"restaurantgo/internal/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TrayServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	tray *TrayService
	user *model.User
	rice *model.Food
	box  *model.FoodPackage
}

func TestTrayServiceSuite(t *testing.T) {
	suite.Run(t, new(TrayServiceTestSuite))
}

func (s *TrayServiceTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.tray = NewTrayService(s.db, NewCatalogService(s.db))
	s.user, _ = testutil.SeedUser(s.T(), s.db, "ada", 0)
	s.rice = testutil.SeedFood(s.T(), s.db, "Jollof Rice", 500, 10)
	s.box = testutil.SeedPackage(s.T(), s.db, "Party Box", 1000, 5)
}

func (s *TrayServiceTestSuite) TestAddItemReturnsCount() {
	ctx := context.Background()

	n, err := s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, s.rice.ID, 2)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.tray.AddItem(ctx, s.user.ID, model.ItemTypePackage, s.box.ID, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	items, err := s.tray.ListItems(ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(2, items[0].Quantity)
	s.Equal(1, items[1].Quantity, "zero quantity defaults to one")
}

func (s *TrayServiceTestSuite) TestAddItemCreatesMissingTray() {
	ctx := context.Background()
	s.Require().NoError(s.db.Where("user_id = ?", s.user.ID).Delete(&model.Tray{}).Error)

	n, err := s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, s.rice.ID, 1)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Equal(int64(1), countRows(s.T(), s.db, &model.Tray{}, "user_id = ?", s.user.ID))
}

func (s *TrayServiceTestSuite) TestAddItemErrors() {
	ctx := context.Background()

	_, err := s.tray.AddItem(ctx, s.user.ID, model.ItemType("Drink"), s.rice.ID, 1)
	s.ErrorIs(err, ErrInvalidItemType)

	_, err = s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, 9999, 1)
	s.ErrorIs(err, ErrCatalogItemNotFound)

	_, err = s.tray.AddItem(ctx, s.user.ID, model.ItemTypePackage, s.rice.ID+100, 1)
	s.ErrorIs(err, ErrCatalogItemNotFound)

	_, err = s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, s.rice.ID, -1)
	s.ErrorIs(err, ErrInvalidQuantity)

	s.Zero(countRows(s.T(), s.db, &model.TrayItem{}, ""))
}

func (s *TrayServiceTestSuite) TestIncreaseAndDecreaseQuantity() {
	ctx := context.Background()
	_, err := s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, s.rice.ID, 1)
	s.Require().NoError(err)

	items, err := s.tray.ListItems(ctx, s.user.ID)
	s.Require().NoError(err)
	id := items[0].ID

	q, err := s.tray.IncreaseQuantity(ctx, s.user.ID, id)
	s.Require().NoError(err)
	s.Equal(2, q)

	q, err = s.tray.DecreaseQuantity(ctx, s.user.ID, id)
	s.Require().NoError(err)
	s.Equal(1, q)

	q, err = s.tray.DecreaseQuantity(ctx, s.user.ID, id)
	s.Require().NoError(err)
	s.Equal(0, q)
	s.Zero(countRows(s.T(), s.db, &model.TrayItem{}, ""))

	_, err = s.tray.IncreaseQuantity(ctx, s.user.ID, id)
	s.ErrorIs(err, ErrTrayItemNotFound)
}

func (s *TrayServiceTestSuite) TestQuantityIsScopedToOwner() {
	ctx := context.Background()
	other, _ := testutil.SeedUser(s.T(), s.db, "eve", 0)

	_, err := s.tray.AddItem(ctx, s.user.ID, model.ItemTypeMeal, s.rice.ID, 1)
	s.Require().NoError(err)
	items, err := s.tray.ListItems(ctx, s.user.ID)
	s.Require().NoError(err)

	_, err = s.tray.IncreaseQuantity(ctx, other.ID, items[0].ID)
	s.ErrorIs(err, ErrTrayItemNotFound)
}

func (s *TrayServiceTestSuite) TestListItemsEnrichesWithCurrentCatalog() {
	ctx := context.Background()
	_, err := s.tray.AddItem(ctx, s.user.ID, model.ItemTypePackage, s.box.ID, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(s.box).Update("price", 1200).Error)

	items, err := s.tray.ListItems(ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Party Box", items[0].Food.Name)
	s.Equal(model.ItemTypePackage, items[0].Food.Type)
	requireAmount(s.T(), 1200, items[0].Food.Price)
	s.Equal(5, items[0].Food.AvailableQuantity)
}

func (s *TrayServiceTestSuite) TestListItemsWithoutTray() {
	_, err := s.tray.ListItems(context.Background(), 4242)
	s.ErrorIs(err, ErrTrayNotFound)
}
