package service

import (
	"context"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
)

// buildCommentTree 将病例下的扁平评论列表组装为嵌套树
//
// comments 需按 (created_at, id) 升序传入。先建立 parent_id → 子评论索引，
// 再从顶级评论出发逐层展开；父链到达不了顶级评论的记录（理论上不存在，
// 例如脏数据形成的环）不会出现在结果中。
//
// 返回顶级评论列表，以及 id → 节点索引（仅含可达节点）。
func buildCommentTree(comments []model.Comment) ([]*dto.CommentResponse, map[uint]*dto.CommentResponse) {
	children := make(map[uint][]*model.Comment, len(comments))
	var roots []*model.Comment
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	nodes := make(map[uint]*dto.CommentResponse, len(comments))
	result := make([]*dto.CommentResponse, 0, len(roots))
	queue := make([]*dto.CommentResponse, 0, len(comments))

	for _, c := range roots {
		node := toCommentResponse(c)
		nodes[c.ID] = node
		result = append(result, node)
		queue = append(queue, node)
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, c := range children[parent.ID] {
			if _, seen := nodes[c.ID]; seen {
				continue
			}
			node := toCommentResponse(c)
			nodes[c.ID] = node
			parent.Replies = append(parent.Replies, node)
			queue = append(queue, node)
		}
	}

	return result, nodes
}

// collectSubtree 返回 rootIDs 及其全部子孙评论的 ID（逐层查询，不递归）
func collectSubtree(ctx context.Context, repo repository.CommentRepository, rootIDs []uint) ([]uint, error) {
	visited := make(map[uint]bool, len(rootIDs))
	var all []uint
	frontier := make([]uint, 0, len(rootIDs))
	for _, id := range rootIDs {
		if !visited[id] {
			visited[id] = true
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}

	for len(frontier) > 0 {
		childIDs, err := repo.ListChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range childIDs {
			if visited[id] {
				continue
			}
			visited[id] = true
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}

	return all, nil
}

func toCommentResponse(c *model.Comment) *dto.CommentResponse {
	resp := &dto.CommentResponse{
		ID:          c.ID,
		CaseID:      c.CaseID,
		AuthorID:    c.UserID,
		CommentText: c.CommentText,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		Replies:     []*dto.CommentResponse{},
	}
	if c.Author != nil {
		resp.Author = c.Author.DisplayName()
	}
	return resp
}
