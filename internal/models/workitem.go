package models

import (
	"sort"
	"time"
)

// WorkItemStatus represents the lifecycle state of a work item.
type WorkItemStatus string

const (
	WorkItemOpen       WorkItemStatus = "open"
	WorkItemInProgress WorkItemStatus = "in_progress"
	WorkItemPaused     WorkItemStatus = "paused"
	WorkItemDone       WorkItemStatus = "done"
)

// ValidWorkItemStatus reports whether s is one of the enumerated states.
func ValidWorkItemStatus(s WorkItemStatus) bool {
	switch s {
	case WorkItemOpen, WorkItemInProgress, WorkItemPaused, WorkItemDone:
		return true
	}
	return false
}

// WorkItem is a node in a project's hierarchical task breakdown. ParentID
// is an optional reference to another work item in the same table.
type WorkItem struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Name      string         `json:"name"`
	ParentID  *string        `json:"parent_id,omitempty"`
	Weight    float64        `json:"weight"`
	Progress  int            `json:"progress"`
	Status    WorkItemStatus `json:"status"`
	SortOrder int            `json:"sort_order"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewWorkItem creates an open work item under the given project.
func NewWorkItem(projectID, name string) *WorkItem {
	now := time.Now()
	return &WorkItem{
		ProjectID: projectID,
		Name:      name,
		Weight:    1,
		Status:    WorkItemOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClampProgress bounds a progress value into [0, 100].
func ClampProgress(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// WorkItemNode is one node of the assembled work-item forest.
type WorkItemNode struct {
	Item     *WorkItem       `json:"item"`
	Children []*WorkItemNode `json:"children"`
}

// BuildWorkItemTree assembles the flat work items of one project into a
// forest. Sibling groups are ordered by (sort_order, id). The walk starts
// from the root group, so an item whose parent id does not resolve within
// the slice is simply left out rather than reported as an error; for the
// same reason a parent cycle can never be entered and no item is emitted
// twice. Operates purely on the slice, no storage access.
func BuildWorkItemTree(items []*WorkItem) []*WorkItemNode {
	byParent := make(map[string][]*WorkItem)
	for _, it := range items {
		parent := ""
		if it.ParentID != nil {
			parent = *it.ParentID
		}
		byParent[parent] = append(byParent[parent], it)
	}

	for _, siblings := range byParent {
		sort.Slice(siblings, func(i, j int) bool {
			if siblings[i].SortOrder != siblings[j].SortOrder {
				return siblings[i].SortOrder < siblings[j].SortOrder
			}
			return siblings[i].ID < siblings[j].ID
		})
	}

	var walk func(parentID string) []*WorkItemNode
	walk = func(parentID string) []*WorkItemNode {
		group := byParent[parentID]
		nodes := make([]*WorkItemNode, 0, len(group))
		for _, it := range group {
			nodes = append(nodes, &WorkItemNode{
				Item:     it,
				Children: walk(it.ID),
			})
		}
		return nodes
	}

	return walk("")
}
