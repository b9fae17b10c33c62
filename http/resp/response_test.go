package resp_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint/http/resp"
)

func TestNew(t *testing.T) {
	// Act
	actual, err := resp.New(
		resp.Code(http.StatusCreated),
		resp.Data(map[string]any{"id": 7}),
		resp.Header("X-Test", "yes"),
		resp.Cookie(&http.Cookie{Name: "flash", Value: "saved"}),
		resp.CacheControl(),
		resp.StatusText("Made It"),
	)

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusCreated, actual.Status)
	require.Equal(t, map[string]any{"id": 7}, actual.Body)
	require.Equal(t, "yes", actual.Header.Get("X-Test"))
	require.Len(t, actual.Cookies, 1)
	require.True(t, actual.CacheControl)
	require.Equal(t, "Made It", actual.StatusText)
}

func TestNewFails(t *testing.T) {
	for _, tc := range []struct {
		name string
		fns  []resp.Fn
		err  error
	}{
		{"Bad-Code", []resp.Fn{resp.Code(999)}, resp.ErrInvalid},
		{"Nameless-Cookie", []resp.Fn{resp.Cookie(&http.Cookie{})}, resp.ErrMissingData},
		{"Empty-File", []resp.Fn{resp.File("")}, resp.ErrMissingData},
		{"Param-Before-Redirect", []resp.Fn{resp.Param("a", "b")}, resp.ErrMissingData},
		{"Empty-Redirect", []resp.Fn{resp.Redirect("")}, resp.ErrInvalid},
		{"Bad-Redirect", []resp.Fn{resp.Redirect("http://[::1")}, resp.ErrInvalid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := resp.New(tc.fns...)
			require.ErrorIs(t, err, tc.err)
			require.Nil(t, actual)
		})
	}
}

func TestRedirect(t *testing.T) {
	// Act
	actual, err := resp.New(resp.Redirect("/login?a=1"), resp.Param("next", "/admin"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusSeeOther, actual.Status)
	require.Equal(t, "/login?a=1&next=%2Fadmin", actual.Location)

	// Act
	actual, err = resp.New(resp.Code(http.StatusPermanentRedirect), resp.Redirect("https://example.com/"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusPermanentRedirect, actual.Status)
}

func TestWrap(t *testing.T) {
	r := resp.Must(resp.Code(http.StatusAccepted), resp.Header("X-Shared", "1"))
	copied := resp.Wrap(r)
	require.NotSame(t, r, copied)
	require.Equal(t, http.StatusAccepted, copied.Status)

	copied.AddCookie(&http.Cookie{Name: "hs", Value: "token"})
	copied.Header.Set("X-Shared", "2")
	require.Empty(t, r.Cookies)
	require.Equal(t, "1", r.Header.Get("X-Shared"))

	bare := resp.Wrap(&resp.Response{Body: "hi"})
	require.Equal(t, http.StatusOK, bare.Status)
	require.NotNil(t, bare.Header)

	wrapped := resp.Wrap([]string{"a"})
	require.Equal(t, http.StatusOK, wrapped.Status)
	require.Equal(t, []string{"a"}, wrapped.Body)

	var nilResp *resp.Response
	empty := resp.Wrap(nilResp)
	require.Equal(t, http.StatusOK, empty.Status)
	require.Nil(t, empty.Body)
}

func TestError(t *testing.T) {
	hidden := resp.Error(http.StatusInternalServerError, "db exploded", false)
	require.Equal(t, http.StatusInternalServerError, hidden.Status)
	require.Equal(t, "Internal Server Error", hidden.Body)

	shown := resp.Error(http.StatusInternalServerError, "db exploded", true)
	require.Equal(t, "db exploded", shown.Body)
}
