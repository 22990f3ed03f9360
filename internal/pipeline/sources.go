package pipeline

import (
	"context"

	inputfile "authwatch/internal/input/file"
	inputredis "authwatch/internal/input/redis"
)

// FileSource reads batch lines from one or more log files.
type FileSource struct {
	paths []string
}

// NewFileSource creates a file source.
func NewFileSource(paths ...string) *FileSource {
	return &FileSource{paths: paths}
}

// Lines reads every configured file.
func (s *FileSource) Lines(ctx context.Context) ([]string, error) {
	if len(s.paths) == 1 {
		return inputfile.ReadLines(s.paths[0])
	}
	return inputfile.ReadMultiple(s.paths)
}

// Close is a no-op for file sources.
func (s *FileSource) Close() error { return nil }

// RedisSource drains lines from a Redis list.
type RedisSource struct {
	consumer *inputredis.Consumer
}

// NewRedisSource wraps a Redis consumer.
func NewRedisSource(consumer *inputredis.Consumer) *RedisSource {
	return &RedisSource{consumer: consumer}
}

// Lines drains the configured list.
func (s *RedisSource) Lines(ctx context.Context) ([]string, error) {
	return s.consumer.DrainLines(ctx)
}

// Close closes the consumer.
func (s *RedisSource) Close() error { return s.consumer.Close() }
