package account

import (
	"net/http"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/limits"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/app/system/uploads"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.uber.org/zap"
)

type fullNameBody struct {
	FullName string `json:"fullName" validate:"required,max=100" msg:"Full name should be required."`
}

// Self returns the signed-in account.
// GET /auth/self
func (h *Handler) Self(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "account.self")
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"user": u})
}

// UpdateFullName changes the display name.
// PUT /auth/full-name
func (h *Handler) UpdateFullName(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var body fullNameBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "account.full-name")
	defer cancel()

	if err := h.Users.UpdateFullName(ctx, su.ObjectID(), body.FullName); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.Users.GetByID(ctx, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"user": u})
}

// UploadProfilePicture stores the multipart "avatar" image and records it
// on the account. The previous picture is deleted best-effort.
// POST /auth/profile-picture
func (h *Handler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAvatarSize)
	if err := r.ParseMultipartForm(limits.MaxAvatarSize); err != nil {
		h.fail(w, apierr.Validation("avatar", "body", "Profile picture should be an image under 5 MB."))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.fail(w, apierr.Validation("avatar", "body", "Profile picture should be required."))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key, err := uploads.ImageKey("avatars", contentType, time.Now().UTC())
	if err != nil {
		h.fail(w, apierr.Validation("avatar", "body", "Profile picture should be a png, jpeg, gif or webp image."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "account.profile-picture")
	defer cancel()

	obj, err := h.Uploads.Put(ctx, key, file, header.Size, contentType)
	if err != nil {
		h.fail(w, err)
		return
	}
	avatar := models.Avatar{URL: obj.URL, AssetID: obj.Key}
	prev, err := h.Users.SetAvatar(ctx, su.ObjectID(), avatar)
	if err != nil {
		if derr := h.Uploads.Delete(ctx, obj.Key); derr != nil {
			h.Log.Warn("cleanup of unrecorded avatar failed", zap.String("key", obj.Key), zap.Error(derr))
		}
		h.fail(w, err)
		return
	}
	if prev != nil && prev.AssetID != "" {
		if err := h.Uploads.Delete(ctx, prev.AssetID); err != nil {
			h.Log.Warn("delete previous avatar failed", zap.String("key", prev.AssetID), zap.Error(err))
		}
	}
	apierr.WriteOK(w, map[string]any{"avatar": avatar})
}
