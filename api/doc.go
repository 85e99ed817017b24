// Package api exposes the snake server over REST.
//
// Routes are registered on a gorilla/mux router:
//
//	POST   /api/auth/register            {username, password, confirm_password}
//	POST   /api/auth/login               {username, password}
//	POST   /api/auth/guest
//	POST   /api/auth/logout
//	GET    /api/auth/me
//	GET    /api/stats
//	GET    /api/stats/history?limit=N
//	GET    /api/leaderboard?limit=N
//
//	POST   /api/sessions                 {config_id}
//	GET    /api/sessions?sort=created|accessed&order=asc|desc&limit=N
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/state
//	POST   /api/sessions/{id}/start
//	POST   /api/sessions/{id}/pause
//	POST   /api/sessions/{id}/restart
//	POST   /api/sessions/{id}/direction  {direction}
//	POST   /api/sessions/{id}/key        {code}
//
//	GET    /api/configs
//	POST   /api/configs
//	GET    /api/configs/{name}
//	GET    /health
//	GET    /ws?session={id}
//
// The login token is read from "Authorization: Bearer <token>" or the token
// query parameter. Creating a session without a token plays as a guest.
//
// Control endpoints answer 200 with accepted=false when a transition does
// not apply, such as starting a running game. Errors are returned as
// {"error": "..."} with a status derived from the service error.
package api
