package service

import (
	"english_club_backend/internal/config"
	"english_club_backend/internal/model"
	"english_club_backend/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMemberCreateRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	members := NewMemberService(env.users, NewStorageService(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()}))
	env.createUser(t, "taken", 0)

	_, err := members.Create(ctx, MemberCreateReq{
		Name:     "Someone",
		Username: "taken",
		Email:    "taken@example.com",
		Password: "secret1",
		Role:     string(model.Member),
	})
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "email")

	created, err := members.Create(ctx, MemberCreateReq{
		Name:     "New Member",
		Username: "newbie",
		Email:    "newbie@example.com",
		Password: "secret1",
		Role:     string(model.Pengurus),
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("secret1")))

	list, total, err := members.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestMemberUpdateAvatarStoresLocally(t *testing.T) {
	env := newTestEnv(t, nil)
	root := t.TempDir()
	members := NewMemberService(env.users, NewStorageService(&config.StorageConfig{Type: "local", LocalPath: root}))
	user := env.createUser(t, "pic", 0)

	updated, err := members.UpdateAvatar(testCtx(t), user.ID, "Me.PNG", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Avatar, "/uploads/avatars/"))
	assert.True(t, strings.HasSuffix(updated.Avatar, ".png"))

	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(updated.Avatar, "/uploads/"))))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(raw))

	_, err = members.UpdateAvatar(testCtx(t), 404, "x.png", strings.NewReader(""), 0, "image/png")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
