package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
	pkgerrors "vetlinks/backend/pkg/errors"
)

// ── 评论模块业务错误 ──

var (
	ErrCommentNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "评论不存在")
	ErrParentNotFound  = pkgerrors.New(pkgerrors.ErrNotFound, "父评论不存在或不属于该病例")
	ErrCommentTooDeep  = pkgerrors.New(pkgerrors.ErrValidation, "回复层级超过上限")
)

// CommentService 评论业务接口
type CommentService interface {
	// AddComment 发表评论；parentID 非 nil 时为回复，父评论必须属于同一病例
	AddComment(ctx context.Context, caseID, authorID uint, text string, parentID *uint) (*dto.CommentResponse, error)
	// ListCaseComments 返回顶级评论，每条递归携带全部回复
	ListCaseComments(ctx context.Context, caseID uint) ([]*dto.CommentResponse, error)
	// ListReplies 返回评论的直接回复，每条递归携带各自的回复
	ListReplies(ctx context.Context, commentID uint) ([]*dto.CommentResponse, error)
}

type commentService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCommentService 创建 CommentService 实例
func NewCommentService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) CommentService {
	return &commentService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── AddComment ──────────────────────

func (s *commentService) AddComment(ctx context.Context, caseID, authorID uint, text string, parentID *uint) (*dto.CommentResponse, error) {
	comment := &model.Comment{
		CaseID:      caseID,
		UserID:      authorID,
		ParentID:    parentID,
		CommentText: text,
	}

	var created *model.Comment
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 病例必须存在
		if _, err := tx.Case.GetByID(ctx, caseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return err
		}

		// 2. 父评论必须存在于同一病例，且层级不超过上限
		if parentID != nil {
			parent, err := tx.Comment.GetByID(ctx, *parentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			if parent.CaseID != caseID {
				return ErrParentNotFound
			}
			comment.Depth = parent.Depth + 1
			if comment.Depth > s.cfg.Comment.MaxDepth {
				return ErrCommentTooDeep
			}
		}

		if err := tx.Comment.Create(ctx, comment); err != nil {
			return err
		}
		var err error
		created, err = tx.Comment.GetByID(ctx, comment.ID)
		return err
	})
	if err != nil {
		if pkgerrors.KindOf(err) == nil {
			s.logger.Error("发表评论失败", zap.Uint("case_id", caseID), zap.Error(err))
		}
		return nil, err
	}

	return toCommentResponse(created), nil
}

// ────────────────────── ListCaseComments ──────────────────────

func (s *commentService) ListCaseComments(ctx context.Context, caseID uint) ([]*dto.CommentResponse, error) {
	if _, err := s.repo.Case.GetByID(ctx, caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		s.logger.Error("查询病例失败", zap.Uint("case_id", caseID), zap.Error(err))
		return nil, err
	}

	comments, err := s.repo.Comment.ListByCase(ctx, caseID)
	if err != nil {
		s.logger.Error("查询评论失败", zap.Uint("case_id", caseID), zap.Error(err))
		return nil, err
	}

	roots, nodes := buildCommentTree(comments)
	if dropped := len(comments) - len(nodes); dropped > 0 {
		s.logger.Warn("存在无法挂接到顶级评论的记录", zap.Uint("case_id", caseID), zap.Int("dropped", dropped))
	}
	return roots, nil
}

// ────────────────────── ListReplies ──────────────────────

func (s *commentService) ListReplies(ctx context.Context, commentID uint) ([]*dto.CommentResponse, error) {
	target, err := s.repo.Comment.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		s.logger.Error("查询评论失败", zap.Uint("comment_id", commentID), zap.Error(err))
		return nil, err
	}

	comments, err := s.repo.Comment.ListByCase(ctx, target.CaseID)
	if err != nil {
		s.logger.Error("查询评论失败", zap.Uint("case_id", target.CaseID), zap.Error(err))
		return nil, err
	}

	_, nodes := buildCommentTree(comments)
	node, ok := nodes[commentID]
	if !ok {
		s.logger.Warn("评论无法挂接到顶级评论", zap.Uint("comment_id", commentID))
		return []*dto.CommentResponse{}, nil
	}
	return node.Replies, nil
}
