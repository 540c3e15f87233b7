package service

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
)

// TraversalOrder selects how a subtree is walked.
type TraversalOrder int

const (
	BreadthFirst TraversalOrder = iota
	DepthFirst
)

func (o TraversalOrder) String() string {
	if o == DepthFirst {
		return "depth-first"
	}

	return "breadth-first"
}

// DeletionPlan is the set of documents removed by deleting Root.
type DeletionPlan struct {
	Root  uint
	Order TraversalOrder
	// Documents holds the root followed by its descendants in discovery order.
	Documents []uint
}

// Descendants returns the planned ids below the root.
func (p *DeletionPlan) Descendants() []uint {
	return p.Documents[1:]
}

func planDeletion(ctx context.Context, docs store.DocumentStore, root uint, order TraversalOrder) (*DeletionPlan, error) {
	plan := &DeletionPlan{Root: root, Order: order, Documents: []uint{root}}
	visited := mapset.NewThreadUnsafeSet[uint](root)

	work := []uint{root}
	for len(work) > 0 {
		var current uint
		if order == DepthFirst {
			current, work = work[len(work)-1], work[:len(work)-1]
		} else {
			current, work = work[0], work[1:]
		}

		children, err := docs.ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			if !visited.Add(child.ID) {
				logrus.Warnf("document %d reached twice while planning deletion of %d", child.ID, root)
				continue
			}
			plan.Documents = append(plan.Documents, child.ID)
			work = append(work, child.ID)
		}
	}

	return plan, nil
}
