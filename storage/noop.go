package storage

import "context"

type NoopStorage struct {
}

func (s *NoopStorage) MakeGame(ctx context.Context, gid string) error {
	return nil
}

func (s *NoopStorage) RemGame(ctx context.Context, gid string) error {
	return nil
}

func (s *NoopStorage) GetSessions(ctx context.Context, gid string) ([]*SessionState, error) {
	return nil, nil
}

func (s *NoopStorage) WriteState(ctx context.Context, gid string, ss []*SessionState) error {
	return nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
