package api

import (
	"net/http"
)

const playHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Treasure Land</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: monospace;
            background: #1a1a2e;
            color: #eee;
            min-height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            background: #16213e;
            padding: 12px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        header h1 { font-size: 16px; font-weight: normal; }
        main { flex: 1; padding: 20px; max-width: 760px; }
        pre { color: #fcd34d; font-size: 11px; margin-bottom: 16px; }
        #message { white-space: pre-wrap; margin-bottom: 12px; }
        #prompt { color: #60a5fa; margin-bottom: 12px; }
        #choices button, #restart {
            background: #0f3460;
            color: #eee;
            border: none;
            padding: 8px 14px;
            margin: 0 8px 8px 0;
            border-radius: 4px;
            font-family: monospace;
            cursor: pointer;
        }
        #choices button:hover, #restart:hover { background: #1d4ed8; }
        .won { color: #95d5b2; }
        .lost { color: #fca5a5; }
        table { margin-top: 24px; border-collapse: collapse; }
        td, th { padding: 4px 12px; text-align: left; border-bottom: 1px solid #0f3460; }
        input {
            background: #16213e;
            color: #eee;
            border: 1px solid #0f3460;
            padding: 6px;
            font-family: monospace;
        }
    </style>
</head>
<body>
    <header>
        <h1>Treasure Land</h1>
        <span>
            <input id="user" placeholder="your name">
            <button id="restart">New game</button>
        </span>
    </header>
    <main>
        <pre id="art"></pre>
        <div id="message"></div>
        <div id="prompt"></div>
        <div id="choices"></div>
        <h3 style="margin-top:24px">Leaderboard</h3>
        <table id="board"><tr><th>Player</th><th>Wins</th><th>Last win</th></tr></table>
    </main>
    <script>
        var sessionId = null;
        var artEl = document.getElementById('art');
        var msgEl = document.getElementById('message');
        var promptEl = document.getElementById('prompt');
        var choicesEl = document.getElementById('choices');

        function render(message, prompt, choices, cls) {
            msgEl.textContent = message || '';
            msgEl.className = cls || '';
            promptEl.textContent = prompt || '';
            choicesEl.innerHTML = '';
            Object.keys(choices || {}).forEach(function(key) {
                var b = document.createElement('button');
                b.textContent = key + ' - ' + choices[key];
                b.onclick = function() { choose(key); };
                choicesEl.appendChild(b);
            });
        }

        function start() {
            var user = document.getElementById('user').value;
            var url = '/api/game/start';
            if (user) url += '?user_id=' + encodeURIComponent(user);
            fetch(url, { method: 'POST' })
                .then(function(res) { return res.json(); })
                .then(function(data) {
                    sessionId = data.session_id;
                    artEl.textContent = data.ascii_art || '';
                    render(data.message, data.prompt, data.choices);
                });
        }

        function choose(key) {
            fetch('/api/game/' + sessionId + '/choice', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ choice: key })
            })
            .then(function(res) { return res.json(); })
            .then(function(data) {
                if (data.detail) { render(data.detail, '', {}, 'lost'); return; }
                artEl.textContent = '';
                if (data.game_over) {
                    render(data.message, '', {}, data.won ? 'won' : 'lost');
                    loadBoard();
                } else {
                    render(data.message, data.prompt, data.choices);
                }
            });
        }

        function loadBoard() {
            fetch('/api/game/leaderboard?limit=10')
                .then(function(res) { return res.json(); })
                .then(function(data) {
                    var board = document.getElementById('board');
                    while (board.rows.length > 1) board.deleteRow(1);
                    data.leaderboard.forEach(function(e) {
                        var row = board.insertRow();
                        row.insertCell().textContent = e.user_id;
                        row.insertCell().textContent = e.wins;
                        row.insertCell().textContent = new Date(e.last_win).toLocaleString();
                    });
                });
        }

        document.getElementById('restart').onclick = start;
        start();
        loadBoard();
    </script>
</body>
</html>`

// playHandler serves the browser version of the game.
func playHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(playHTML))
}
