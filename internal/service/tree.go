package service

import (
	"context"
	"fmt"

	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/workflow"
)

// TreeService loads and stores the workflow tree.
type TreeService struct {
	Nodes *repository.NodeRepo
}

// Load builds the stored tree. An empty store yields an empty tree.
func (s *TreeService) Load(ctx context.Context) (*workflow.Tree, error) {
	nodes, err := s.Nodes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	if len(nodes) == 0 {
		return workflow.Empty(), nil
	}
	return workflow.Build(nodes)
}

// Seed validates nodes as a tree and replaces the stored one with it.
func (s *TreeService) Seed(ctx context.Context, nodes []workflow.Node) (*workflow.Tree, error) {
	tree, err := workflow.Build(nodes)
	if err != nil {
		return nil, err
	}
	if err := s.Nodes.ReplaceAll(ctx, tree.Flatten()); err != nil {
		return nil, fmt.Errorf("store nodes: %w", err)
	}
	return tree, nil
}
