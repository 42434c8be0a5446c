package storage

import (
	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

// Subtree returns root and all of its descendants among rows, breadth first.
// Cycles are walked once.
func Subtree(rows []models.Comment, root uuid.UUID) []uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID, len(rows))
	for _, c := range rows {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	seen := map[uuid.UUID]bool{root: true}
	ids := []uuid.UUID{root}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids
}
