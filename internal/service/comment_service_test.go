package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetlinks/backend/internal/model"
	pkgerrors "vetlinks/backend/pkg/errors"
)

// ── AddComment ──

func TestAddComment_TopLevelAndReply(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	alice := createTestUser(env, "alice", "password123", "basic")
	bob := createTestUser(env, "bob", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	root, err := env.svc.Comment.AddComment(ctx, c.ID, bob.ID, "建议做 X 光", nil)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, bob.ID, root.AuthorID)
	assert.Equal(t, "bob", root.Author)
	assert.Equal(t, c.ID, root.CaseID)

	reply, err := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "已安排", uintPtr(root.ID))
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, 1, env.store.comments[reply.ID].Depth)
}

func TestAddComment_CaseNotFound(t *testing.T) {
	env := setupTestEnv()
	alice := createTestUser(env, "alice", "password123", "basic")

	_, err := env.svc.Comment.AddComment(context.Background(), 404, alice.ID, "x", nil)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestAddComment_ParentMustBeInSameCase(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	alice := createTestUser(env, "alice", "password123", "basic")
	c1 := createTestCase(env, alice.ID, "病例1")
	c2 := createTestCase(env, alice.ID, "病例2")
	other, _ := env.svc.Comment.AddComment(ctx, c2.ID, alice.ID, "病例2 的评论", nil)

	_, err := env.svc.Comment.AddComment(ctx, c1.ID, alice.ID, "跨病例回复", uintPtr(other.ID))
	assert.ErrorIs(t, err, ErrParentNotFound)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = env.svc.Comment.AddComment(ctx, c1.ID, alice.ID, "父评论不存在", uintPtr(9999))
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestAddComment_DepthLimit(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	alice := createTestUser(env, "alice", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	// MaxDepth=3：depth 0..3 均允许
	parent, err := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "d0", nil)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		parent, err = env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "reply", uintPtr(parent.ID))
		require.NoError(t, err, "depth=%d 应允许", i)
	}

	_, err = env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "too deep", uintPtr(parent.ID))
	assert.ErrorIs(t, err, ErrCommentTooDeep)
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
	assert.Len(t, env.store.comments, 4)
}

// ── ListCaseComments / ListReplies ──

func TestListCaseComments_NestedTree(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	alice := createTestUser(env, "alice", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	r1, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "r1", nil)
	r2, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "r2", nil)
	r1a, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "r1a", uintPtr(r1.ID))
	r1b, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "r1b", uintPtr(r1.ID))
	r1a1, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "r1a1", uintPtr(r1a.ID))

	tree, err := env.svc.Comment.ListCaseComments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, r1.ID, tree[0].ID)
	assert.Equal(t, r2.ID, tree[1].ID)
	assert.Empty(t, tree[1].Replies)

	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, r1a.ID, tree[0].Replies[0].ID)
	assert.Equal(t, r1b.ID, tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, r1a1.ID, tree[0].Replies[0].Replies[0].ID)
}

func TestListCaseComments_CaseNotFound(t *testing.T) {
	env := setupTestEnv()

	_, err := env.svc.Comment.ListCaseComments(context.Background(), 77)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestListCaseComments_EmptyCase(t *testing.T) {
	env := setupTestEnv()
	alice := createTestUser(env, "alice", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	tree, err := env.svc.Comment.ListCaseComments(context.Background(), c.ID)
	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestListReplies(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	alice := createTestUser(env, "alice", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	root, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "root", nil)
	child, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "child", uintPtr(root.ID))
	grandchild, _ := env.svc.Comment.AddComment(ctx, c.ID, alice.ID, "grandchild", uintPtr(child.ID))

	replies, err := env.svc.Comment.ListReplies(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, child.ID, replies[0].ID)
	require.Len(t, replies[0].Replies, 1)
	assert.Equal(t, grandchild.ID, replies[0].Replies[0].ID)

	leaf, err := env.svc.Comment.ListReplies(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Empty(t, leaf)

	_, err = env.svc.Comment.ListReplies(ctx, 12345)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestListReplies_UnreachableComment(t *testing.T) {
	env := setupTestEnv()
	alice := createTestUser(env, "alice", "password123", "basic")
	c := createTestCase(env, alice.ID, "病例")

	// 两条互为父子的脏数据
	a, b := uint(100), uint(101)
	env.store.comments[a] = &model.Comment{ID: a, CaseID: c.ID, UserID: alice.ID, ParentID: &b, CommentText: "a"}
	env.store.comments[b] = &model.Comment{ID: b, CaseID: c.ID, UserID: alice.ID, ParentID: &a, CommentText: "b"}

	replies, err := env.svc.Comment.ListReplies(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, replies)

	tree, err := env.svc.Comment.ListCaseComments(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, tree)
}
