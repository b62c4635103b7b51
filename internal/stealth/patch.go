// internal/stealth/patch.go
package stealth

import "fmt"

// NavigatorPatchScript returns the JavaScript evaluated on every new
// document before page scripts run. It removes the automation markers
// headless Chrome leaves on the navigator object and aligns the reported
// platform and languages with the session profile.
func NavigatorPatchScript(p Profile) string {
	return fmt.Sprintf(`(() => {
  Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  Object.defineProperty(navigator, 'platform', { get: () => %q });
  Object.defineProperty(navigator, 'languages', { get: () => [%q, 'en'] });
  Object.defineProperty(navigator, 'plugins', {
    get: () => [1, 2, 3, 4, 5],
  });
  window.chrome = window.chrome || { runtime: {} };
  const originalQuery = window.navigator.permissions.query;
  window.navigator.permissions.query = (parameters) => (
    parameters.name === 'notifications'
      ? Promise.resolve({ state: Notification.permission })
      : originalQuery(parameters)
  );
})();`, p.Platform, p.Locale)
}
