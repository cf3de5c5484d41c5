package memory

import (
	"context"
	"strings"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateStation(_ context.Context, in storage.NewStation) (*models.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := models.Station{
		ID:         storage.NewID(),
		Name:       in.Name,
		Address:    in.Address,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Connectors: strList(in.Connectors),
		Network:    in.Network,
		PowerKW:    in.PowerKW,
		AddedBy:    in.AddedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.stations[st.ID] = st
	return cloneStation(st), nil
}

func (s *Store) GetStation(_ context.Context, id string) (*models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[id]
	if !ok {
		return nil, nil
	}
	return cloneStation(st), nil
}

func (s *Store) ListStations(_ context.Context, f storage.StationFilter) ([]models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.stations, cloneStation, func(st *models.Station) bool {
		if f.Network != "" && !strings.EqualFold(st.Network, f.Network) {
			return false
		}
		if f.AddedBy != "" && st.AddedBy != f.AddedBy {
			return false
		}
		if f.Connector != "" {
			for _, c := range st.Connectors {
				if strings.EqualFold(c, f.Connector) {
					return true
				}
			}
			return false
		}
		return true
	})
	newestFirst(out, func(st *models.Station) time.Time { return st.CreatedAt })
	return paginate(out, f.Page), nil
}

func (s *Store) UpdateStation(_ context.Context, id string, patch storage.StationPatch) (*models.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stations[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		st.Name = *patch.Name
	}
	if patch.Address != nil {
		st.Address = *patch.Address
	}
	if patch.Latitude != nil {
		st.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		st.Longitude = *patch.Longitude
	}
	if patch.Connectors != nil {
		st.Connectors = strList(*patch.Connectors)
	}
	if patch.Network != nil {
		st.Network = *patch.Network
	}
	if patch.PowerKW != nil {
		st.PowerKW = *patch.PowerKW
	}
	st.UpdatedAt = s.now()
	s.stations[id] = st
	return cloneStation(st), nil
}

func (s *Store) DeleteStation(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stations[id]; !ok {
		return false, nil
	}
	s.dropBookmarksLocked(models.NewTarget(models.TargetStation, id))
	delete(s.stations, id)
	return true, nil
}

func bookmarkKey(userID string, t models.Target) string {
	return pairKey(userID, string(t.Kind), t.ID)
}

func (s *Store) CreateBookmark(_ context.Context, userID string, target models.Target) (*models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bookmarkKey(userID, target)
	if id, exists := s.bookmarkIndex[key]; exists {
		return cloneBookmark(s.bookmarks[id]), nil
	}
	b := models.Bookmark{
		ID:        storage.NewID(),
		UserID:    userID,
		Target:    target,
		CreatedAt: s.now(),
	}
	s.bookmarks[b.ID] = b
	s.bookmarkIndex[key] = b.ID
	s.adjustStationBookmarksLocked(target, 1)
	return cloneBookmark(b), nil
}

func (s *Store) GetBookmark(_ context.Context, id string) (*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return nil, nil
	}
	return cloneBookmark(b), nil
}

func (s *Store) DeleteBookmark(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return false, nil
	}
	s.removeBookmarkLocked(b)
	return true, nil
}

func (s *Store) DeleteBookmarkByTarget(_ context.Context, userID string, target models.Target) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.bookmarkIndex[bookmarkKey(userID, target)]
	if !ok {
		return false, nil
	}
	s.removeBookmarkLocked(s.bookmarks[id])
	return true, nil
}

func (s *Store) ListBookmarks(_ context.Context, userID string, kind models.TargetKind) ([]models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.bookmarks, cloneBookmark, func(b *models.Bookmark) bool {
		return b.UserID == userID && (kind == "" || b.Target.Kind == kind)
	})
	newestFirst(out, func(b *models.Bookmark) time.Time { return b.CreatedAt })
	return out, nil
}

func (s *Store) IsBookmarked(_ context.Context, userID string, target models.Target) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookmarkIndex[bookmarkKey(userID, target)]
	return ok, nil
}

func (s *Store) removeBookmarkLocked(b models.Bookmark) {
	delete(s.bookmarks, b.ID)
	delete(s.bookmarkIndex, bookmarkKey(b.UserID, b.Target))
	s.adjustStationBookmarksLocked(b.Target, -1)
}

// dropBookmarksLocked removes every bookmark pointing at target.
func (s *Store) dropBookmarksLocked(target models.Target) {
	for _, b := range s.bookmarks {
		if b.Target == target {
			s.removeBookmarkLocked(b)
		}
	}
}

func (s *Store) adjustStationBookmarksLocked(target models.Target, delta int) {
	if target.Kind != models.TargetStation {
		return
	}
	if st, ok := s.stations[target.ID]; ok {
		addCount(&st.BookmarksCount, delta)
		s.stations[st.ID] = st
	}
}
