package models

type AddFavoriteRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type FavoriteStatus struct {
	ProductID  string `json:"productId"`
	IsFavorite bool   `json:"isFavorite"`
}
