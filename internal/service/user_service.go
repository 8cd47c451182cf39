package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
	pkgerrors "vetlinks/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "用户不存在")
	ErrNoPermission = pkgerrors.New(pkgerrors.ErrForbidden, "无权操作")
)

// UserService 用户业务接口
// 读取对任意已认证用户开放；修改、删除仅限本人
type UserService interface {
	GetByID(ctx context.Context, id uint) (*dto.UserDetailResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id, callerID uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	// Delete 删除用户及其病例（连同病例下的报告和评论）、本人发表的评论子树和 Token
	Delete(ctx context.Context, id, callerID uint) error
}

type userService struct {
	repo   *repository.Repository
	cache  TokenCache
	images ImageStore
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, cache TokenCache, images ImageStore, logger *zap.Logger) UserService {
	return &userService{repo: repo, cache: cache, images: images, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id uint) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	cases, err := s.repo.Case.ListByOwner(ctx, id)
	if err != nil {
		s.logger.Error("查询用户病例失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.UserDetailResponse{
		UserResponse: *toUserResponse(user),
		Cases:        toCaseResponses(cases),
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id, callerID uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if id != callerID {
		return nil, ErrNoPermission
	}

	var updated *model.User
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// 仅更新非 nil 字段
		applyProfile(user, req)

		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("更新用户失败", zap.Uint("id", id), zap.Error(err))
		}
		return nil, err
	}

	return toUserResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id, callerID uint) error {
	if id != callerID {
		return ErrNoPermission
	}

	var images []string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.User.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// 1. 本人病例及其下的评论、化验报告
		cases, err := tx.Case.ListByOwner(ctx, id)
		if err != nil {
			return err
		}
		caseIDs := make([]uint, 0, len(cases))
		for _, c := range cases {
			caseIDs = append(caseIDs, c.ID)
			if c.Image != nil {
				images = append(images, *c.Image)
			}
		}
		if err := tx.Comment.DeleteByCaseIDs(ctx, caseIDs); err != nil {
			return err
		}
		if err := tx.LaboratoryReport.DeleteByCaseIDs(ctx, caseIDs); err != nil {
			return err
		}
		if err := tx.Case.DeleteByOwner(ctx, id); err != nil {
			return err
		}

		// 2. 本人在他人病例下发表的评论，连同其全部回复
		authored, err := tx.Comment.ListIDsByAuthor(ctx, id)
		if err != nil {
			return err
		}
		subtree, err := collectSubtree(ctx, tx.Comment, authored)
		if err != nil {
			return err
		}
		if err := tx.Comment.DeleteByIDs(ctx, subtree); err != nil {
			return err
		}

		// 3. Token 与用户本身
		if err := tx.Token.DeleteByUserID(ctx, id); err != nil {
			return err
		}
		return tx.User.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		s.logger.Error("删除用户失败", zap.Uint("id", id), zap.Error(err))
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteActiveToken(ctx, id); err != nil {
			s.logger.Warn("清除 Token 缓存失败", zap.Uint("user_id", id), zap.Error(err))
		}
	}
	removeImages(s.images, images, s.logger)

	s.logger.Info("用户已删除", zap.Uint("user_id", id))
	return nil
}

// ── 转换函数 ──

func applyProfile(user *model.User, req *dto.UpdateUserRequest) {
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Name != nil {
		user.Name = req.Name
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.DOB != nil {
		user.DOB = req.DOB
	}
	if req.Qualification != nil {
		user.Qualification = req.Qualification
	}
	if req.VCNNumber != nil {
		user.VCNNumber = req.VCNNumber
	}
	if req.SpecializationCategory != nil {
		user.SpecializationCategory = req.SpecializationCategory
	}
	if req.University != nil {
		user.University = req.University
	}
	if req.State != nil {
		user.State = req.State
	}
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:                     u.ID,
		Username:               u.Username,
		AccountType:            u.AccountType,
		Email:                  u.Email,
		PhoneNumber:            u.PhoneNumber,
		Address:                u.Address,
		Name:                   u.Name,
		Gender:                 u.Gender,
		DOB:                    u.DOB,
		Qualification:          u.Qualification,
		VCNNumber:              u.VCNNumber,
		SpecializationCategory: u.SpecializationCategory,
		University:             u.University,
		State:                  u.State,
		CreatedAt:              u.CreatedAt,
	}
}
