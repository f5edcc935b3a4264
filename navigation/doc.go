// Package navigation models the client's navigation target: the process-wide equivalent of
// a browser's location.
//
// Two kinds of navigation exist. Hard navigations ([Navigator.Assign], [Navigator.Replace])
// leave the application entirely, as when the user is sent to an OAuth provider or forced
// back to the login page after a 401. In-app navigations ([Navigator.Navigate]) change the
// current route and may carry [State], such as the location the user originally requested.
package navigation
