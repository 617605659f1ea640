package handlers

import (
	"context"
	"errors"

	"compliance-ai/internal/models"
)

var errTest = errors.New("backend exploded: secret dsn")

// spyStore is a hand fake of datastore.DataStore that records calls and
// returns canned responses.
type spyStore struct {
	upsertDocs [][]models.Document
	upsertIDs  []string
	upsertErr  error

	queryCalls   [][]models.Query
	queryResults []models.QueryResult
	queryErr     error

	deleteCalls int
	deleteIDs   []string
	deleteMeta  *models.MetadataFilter
	deleteAll   bool
	deleteOK    bool
	deleteErr   error
}

func (s *spyStore) Upsert(ctx context.Context, docs []models.Document) ([]string, error) {
	s.upsertDocs = append(s.upsertDocs, docs)
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	if s.upsertIDs != nil {
		return s.upsertIDs, nil
	}
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = "generated-id"
	}
	return ids, nil
}

func (s *spyStore) Query(ctx context.Context, queries []models.Query) ([]models.QueryResult, error) {
	s.queryCalls = append(s.queryCalls, queries)
	return s.queryResults, s.queryErr
}

func (s *spyStore) Delete(ctx context.Context, ids []string, filter *models.MetadataFilter, deleteAll bool) (bool, error) {
	s.deleteCalls++
	s.deleteIDs = ids
	s.deleteMeta = filter
	s.deleteAll = deleteAll
	return s.deleteOK, s.deleteErr
}
