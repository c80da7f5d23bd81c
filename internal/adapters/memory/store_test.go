package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = NewStore()
	s.ctx = context.Background()
}

func (s *StoreSuite) portfolio(name string) domain.Portfolio {
	p := domain.Portfolio{Name: name}
	s.Require().NoError(s.store.Portfolios().Create(s.ctx, &p))
	return p
}

func (s *StoreSuite) property(portfolioID int64, lat, lon float64) domain.Property {
	p := domain.Property{PortfolioID: portfolioID, Name: "p", Location: domain.GeoPoint{Lat: lat, Lon: lon}}
	s.Require().NoError(s.store.Properties().Create(s.ctx, &p))
	return p
}

func (s *StoreSuite) TestPortfolioCRUD() {
	repo := s.store.Portfolios()

	s.Run("ids are sequential", func() {
		a := s.portfolio("A")
		b := s.portfolio("B")
		s.Equal(a.ID+1, b.ID)
	})

	s.Run("list is ordered by id", func() {
		list, err := repo.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal("A", list[0].Name)
		s.Equal("B", list[1].Name)
	})

	s.Run("update keeps created_at", func() {
		got, err := repo.GetByID(s.ctx, 1)
		s.Require().NoError(err)
		upd := domain.Portfolio{ID: 1, Name: "A2"}
		s.Require().NoError(repo.Update(s.ctx, &upd))
		s.Equal(got.CreatedAt, upd.CreatedAt)
	})

	s.Run("missing portfolio", func() {
		_, err := repo.GetByID(s.ctx, 99)
		s.ErrorIs(err, domain.ErrNotFound)
		s.ErrorIs(repo.Update(s.ctx, &domain.Portfolio{ID: 99}), domain.ErrNotFound)
		s.ErrorIs(repo.Delete(s.ctx, 99), domain.ErrNotFound)
	})
}

func (s *StoreSuite) TestDeletePortfolioCascades() {
	keep := s.portfolio("keep")
	drop := s.portfolio("drop")
	s.property(drop.ID, 1, 1)
	s.property(drop.ID, 2, 2)
	kept := s.property(keep.ID, 3, 3)

	s.Require().NoError(s.store.Portfolios().Delete(s.ctx, drop.ID))

	all, err := s.store.Properties().List(s.ctx, domain.PropertyFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(kept.ID, all[0].ID)
}

func (s *StoreSuite) TestPropertyFilters() {
	a := s.portfolio("a")
	b := s.portfolio("b")
	oslo := s.property(a.ID, 59.9139, 10.7522)
	s.property(a.ID, 60.3913, 5.3221)
	s.property(b.ID, 59.92, 10.76)

	repo := s.store.Properties()

	s.Run("bbox and portfolio combine", func() {
		got, err := repo.List(s.ctx, domain.PropertyFilter{
			PortfolioID: &a.ID,
			BBox:        &domain.BBox{MinLon: 10.6, MinLat: 59.8, MaxLon: 10.9, MaxLat: 60.0},
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(oslo.ID, got[0].ID)
	})

	s.Run("unfiltered returns all in id order", func() {
		got, err := repo.List(s.ctx, domain.PropertyFilter{})
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Less(got[0].ID, got[1].ID)
		s.Less(got[1].ID, got[2].ID)
	})
}

func (s *StoreSuite) TestPropertyRequiresPortfolio() {
	p := domain.Property{PortfolioID: 42}
	s.ErrorIs(s.store.Properties().Create(s.ctx, &p), domain.ErrNotFound)
}

func (s *StoreSuite) TestCreateBatchIsAllOrNothing() {
	a := s.portfolio("a")
	_, err := s.store.Properties().CreateBatch(s.ctx, []domain.Property{
		{PortfolioID: a.ID},
		{PortfolioID: 999},
	})
	s.ErrorIs(err, domain.ErrNotFound)

	all, err := s.store.Properties().List(s.ctx, domain.PropertyFilter{})
	s.Require().NoError(err)
	s.Empty(all)

	ids, err := s.store.Properties().CreateBatch(s.ctx, []domain.Property{{PortfolioID: a.ID}, {PortfolioID: a.ID}})
	s.Require().NoError(err)
	s.Len(ids, 2)

	s.Require().NoError(s.store.Properties().DeleteBatch(s.ctx, ids))
	all, err = s.store.Properties().List(s.ctx, domain.PropertyFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}
