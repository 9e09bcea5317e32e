package constants

const (
	HTTPCodeOK                  = 200
	HTTPCodeCreated             = 201
	HTTPCodeAccepted            = 202
	HTTPCodeNoContent           = 204
	HTTPCodeBadRequest          = 400
	HTTPCodeUnauthorized        = 401
	HTTPCodeForbidden           = 403
	HTTPCodeNotFound            = 404
	HTTPCodeMethodNotAllowed    = 405
	HTTPCodeConflict            = 409
	HTTPCodeUnsupportedMedia    = 415
	HTTPCodeInternalServerError = 500
	HTTPCodeNotImplemented      = 501
)
